package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"longform/internal/classifier"
	"longform/internal/config"
	"longform/internal/matcher"
)

// Segmenter turns raw input into ordered, size-bounded chunks. Code input
// goes through the structural matcher when one is configured, prose is
// partitioned at headings or paragraph starts, and the fallback cutter
// handles everything the structural paths cannot.
type Segmenter struct {
	maxChars      int
	overlapChars  int
	enableOverlap bool
	boundary      map[rune]bool
	cls           *classifier.Classifier
	matcher       matcher.Matcher
	logger        *zap.Logger
}

// NewSegmenter wires a segmenter. m may be nil when no structural matcher
// is configured; logger may be nil.
func NewSegmenter(cfg *config.Config, cls *classifier.Classifier, m matcher.Matcher, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{
		maxChars:      cfg.MaxChunkChars,
		overlapChars:  cfg.OverlapChars,
		enableOverlap: cfg.EnableOverlap,
		boundary:      boundarySet(cfg.BoundaryChars),
		cls:           cls,
		matcher:       m,
		logger:        logger,
	}
}

// Segment chunks text. Blank input yields no chunks and no error; any
// other input yields chunks whose core spans reproduce it exactly.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	kind := s.cls.Classify(text)
	spans := s.structuralSpans(ctx, text, kind)

	// a structural split that found no real boundaries in oversized input
	// hands the whole text to the fallback cutter
	if len(spans) < 2 && utf8.RuneCountInString(text) > s.maxChars {
		if spans != nil {
			s.logger.Debug("structural split degenerate, using fallback",
				zap.Int("spans", len(spans)), zap.String("kind", string(kind)))
		}
		spans = nil
	}

	if spans == nil {
		spans = fallbackSpans(text, 0, s.maxChars, s.boundary)
	} else {
		spans = subdivideSpans(text, spans, s.maxChars, s.boundary)
		if oversized(text, spans, s.maxChars) {
			s.logger.Warn("structural spans stayed oversized, using fallback")
			spans = fallbackSpans(text, 0, s.maxChars, s.boundary)
		}
	}

	chunks := buildChunks(text, spans, kind)
	if s.enableOverlap && s.overlapChars > 0 {
		chunks = ExpandOverlap(text, chunks, s.overlapChars)
	}
	if err := VerifyCoverage(text, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// structuralSpans returns nil when no structural path applies. A failing
// matcher counts as no structure; segmentation must survive on fallback.
func (s *Segmenter) structuralSpans(ctx context.Context, text string, kind classifier.Kind) []span {
	var cuts []int
	if kind == classifier.Code {
		if s.matcher == nil {
			return nil
		}
		matches, err := s.matcher.Match(ctx, text)
		if err != nil {
			s.logger.Warn("structural matcher failed, using fallback", zap.Error(err))
			return nil
		}
		for _, m := range matches {
			cuts = append(cuts, m.Start)
		}
	} else {
		cuts = proseCuts(text)
	}
	if len(cuts) == 0 {
		return nil
	}
	return partitionAt(len(text), cuts)
}

func oversized(text string, spans []span, maxChars int) bool {
	for _, s := range spans {
		if utf8.RuneCountInString(text[s.start:s.end]) > maxChars {
			return true
		}
	}
	return false
}
