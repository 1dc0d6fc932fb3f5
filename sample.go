// sample.go
package main

// sampleText feeds the root demo. Prose with headings exercises the
// structural prose chunker; the length forces several chunks.
const sampleText = `# Field Notes on Caching

Caches trade memory for latency. The first draft of any cache is a map
guarded by a mutex, and for many services that first draft is also the
last one they need. Problems start when the working set outgrows memory
or when invalidation rules stop being obvious.

## Eviction

Least-recently-used eviction is popular because it is cheap to reason
about, not because it is optimal. Workloads with periodic scans defeat
it badly: one pass over a large table evicts the entire hot set. Shops
that hit this usually reach for segmented LRU or a small admission
filter in front of the main cache.

## Invalidation

Invalidation is where correctness lives. Time-based expiry is the only
strategy that needs no coordination, which is why it survives in every
production system despite serving stale reads. Explicit invalidation is
precise but couples every writer to the cache topology. Most real
deployments mix both: short TTLs as a safety net, explicit purges for
the paths where staleness is user-visible.

## Warm-up

A cold cache after a deploy can be worse than no cache, because the
database sized for cached traffic now takes the full load. Gradual
rollouts and request mirroring are the usual cures, and both are easier
to operate than a bespoke warm-up job that replays yesterday's keys.`
