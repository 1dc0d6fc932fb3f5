package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides copies every set LONGFORM_* variable onto its config
// field. Overrides happen only when the variable is present, so the
// explicit YAML values stay authoritative otherwise. Unparseable integers
// and floats abort with an error naming the variable; an unrecognized
// boolean or a blank string keeps the prior value.
func (c *Config) ApplyEnvOverrides() error {
	var err error

	if c.MaxChunkChars, err = overrideInt("LONGFORM_MAX_CHUNK_CHARS", c.MaxChunkChars); err != nil {
		return err
	}
	if c.OverlapChars, err = overrideInt("LONGFORM_OVERLAP_CHARS", c.OverlapChars); err != nil {
		return err
	}
	c.EnableOverlap = overrideBool("LONGFORM_ENABLE_OVERLAP", c.EnableOverlap)
	c.BoundaryChars = overrideStr("LONGFORM_BOUNDARY_CHARS", c.BoundaryChars)
	if c.SummaryChars, err = overrideInt("LONGFORM_SUMMARY_CHARS", c.SummaryChars); err != nil {
		return err
	}
	c.EnableSelfCheck = overrideBool("LONGFORM_ENABLE_SELF_CHECK", c.EnableSelfCheck)
	if c.Workers, err = overrideInt("LONGFORM_WORKERS", c.Workers); err != nil {
		return err
	}

	c.Matcher.Enable = overrideBool("LONGFORM_MATCHER_ENABLE", c.Matcher.Enable)
	c.Matcher.Kind = overrideStr("LONGFORM_MATCHER_KIND", c.Matcher.Kind)
	c.Matcher.Command = overrideStr("LONGFORM_MATCHER_COMMAND", c.Matcher.Command)
	c.Matcher.Language = overrideStr("LONGFORM_MATCHER_LANGUAGE", c.Matcher.Language)
	c.Matcher.Patterns = overrideCSV("LONGFORM_MATCHER_PATTERNS", c.Matcher.Patterns)

	if c.TextType.MinScore, err = overrideFloat("LONGFORM_TEXT_TYPE_MIN_SCORE", c.TextType.MinScore); err != nil {
		return err
	}
	if c.TextType.LineRatioDivisor, err = overrideFloat("LONGFORM_TEXT_TYPE_LINE_RATIO_DIVISOR", c.TextType.LineRatioDivisor); err != nil {
		return err
	}
	if c.TextType.KeywordWeight, err = overrideFloat("LONGFORM_TEXT_TYPE_KEYWORD_WEIGHT", c.TextType.KeywordWeight); err != nil {
		return err
	}
	if c.TextType.SymbolWeight, err = overrideFloat("LONGFORM_TEXT_TYPE_SYMBOL_WEIGHT", c.TextType.SymbolWeight); err != nil {
		return err
	}
	if c.TextType.LineWeight, err = overrideFloat("LONGFORM_TEXT_TYPE_LINE_WEIGHT", c.TextType.LineWeight); err != nil {
		return err
	}
	c.TextType.KeywordPattern = overrideStr("LONGFORM_TEXT_TYPE_KEYWORD_PATTERN", c.TextType.KeywordPattern)
	c.TextType.SymbolPattern = overrideStr("LONGFORM_TEXT_TYPE_SYMBOL_PATTERN", c.TextType.SymbolPattern)
	c.TextType.LineStartPattern = overrideStr("LONGFORM_TEXT_TYPE_LINE_START_PATTERN", c.TextType.LineStartPattern)
	c.TextType.CallLikePattern = overrideStr("LONGFORM_TEXT_TYPE_CALL_LIKE_PATTERN", c.TextType.CallLikePattern)
	c.TextType.CommentPattern = overrideStr("LONGFORM_TEXT_TYPE_COMMENT_PATTERN", c.TextType.CommentPattern)

	c.LLM.Enable = overrideBool("LONGFORM_LLM_ENABLE", c.LLM.Enable)
	c.LLM.Provider = overrideStr("LONGFORM_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.BaseURL = overrideStr("LONGFORM_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.APIKeyEnv = overrideStr("LONGFORM_LLM_API_KEY_ENV", c.LLM.APIKeyEnv)
	c.LLM.Model = overrideStr("LONGFORM_LLM_MODEL", c.LLM.Model)
	if c.LLM.TimeoutSeconds, err = overrideInt("LONGFORM_LLM_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds); err != nil {
		return err
	}
	if c.LLM.MaxRetries, err = overrideInt("LONGFORM_LLM_MAX_RETRIES", c.LLM.MaxRetries); err != nil {
		return err
	}
	c.LLM.GeneratePath = overrideStr("LONGFORM_LLM_GENERATE_PATH", c.LLM.GeneratePath)
	c.LLM.AuthType = overrideStr("LONGFORM_LLM_AUTH_TYPE", c.LLM.AuthType)

	c.Perplexity.Enable = overrideBool("LONGFORM_PERPLEXITY_ENABLE", c.Perplexity.Enable)
	c.Perplexity.Endpoint = overrideStr("LONGFORM_PERPLEXITY_ENDPOINT", c.Perplexity.Endpoint)
	c.Perplexity.TextField = overrideStr("LONGFORM_PERPLEXITY_TEXT_FIELD", c.Perplexity.TextField)
	c.Perplexity.LogprobsField = overrideStr("LONGFORM_PERPLEXITY_LOGPROBS_FIELD", c.Perplexity.LogprobsField)

	return nil
}

func overrideInt(key string, prior int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return prior, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: %s is not an integer: %q", key, raw)
	}
	return n, nil
}

func overrideFloat(key string, prior float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return prior, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s is not a number: %q", key, raw)
	}
	return f, nil
}

func overrideBool(key string, prior bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return prior
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return prior
}

func overrideStr(key, prior string) string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return prior
	}
	return raw
}

func overrideCSV(key string, prior []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return prior
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
