package postprocessors

import (
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/postprocessors/paragraph"
)

// ParagraphSegmenter is the registry name of the paragraph segmenter.
const ParagraphSegmenter = "paragraph"

// RegisterDefaults registers all built-in segmenters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(ParagraphSegmenter, buildParagraph)
}

// NewSegmenter builds the paragraph segmenter from persisted settings.
// Invalid bounds fall back to the segmenter defaults.
func NewSegmenter(settings domain.SegmenterSettings) (driven.PostProcessor, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := map[string]any{}
	if settings.IsValid() {
		cfg["min_length"] = settings.MinLength
		cfg["max_length"] = settings.MaxLength
	}

	return r.Build(ParagraphSegmenter, cfg)
}

// buildParagraph creates a paragraph segmenter from generic config.
// Supported config keys:
//   - min_length (int): shortest paragraph kept (default: 100)
//   - max_length (int): longest paragraph before sentence re-splitting (default: 1000)
func buildParagraph(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []paragraph.Option

	if cfg != nil {
		if n, ok := getIntFromConfig(cfg, "min_length"); ok {
			opts = append(opts, paragraph.WithMinLength(n))
		}
		if n, ok := getIntFromConfig(cfg, "max_length"); ok {
			opts = append(opts, paragraph.WithMaxLength(n))
		}
	}

	return paragraph.New(opts...), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
