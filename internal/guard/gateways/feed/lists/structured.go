package lists

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/callguard/internal/guard/common/utils"
	"github.com/haukened/callguard/internal/guard/domain"
)

// parserFor returns the koanf parser for a structured list file, or nil when the
// extension is not a structured format.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// loadStructuredFile loads a YAML, JSON or TOML authority list:
//
//	label: 警察庁リスト
//	updated: 2025-11-11T09:00:00Z
//	numbers:
//	  - number: "+44 20 7946 0999"
//	    label: 国際送金要求
//	    international: true
//	    updated: 2025-11-11T09:00:00Z
//
// The file-level label and updated time are defaults for entries that omit them;
// now is the final fallback for the timestamp. When international is omitted it
// is inferred from a leading '+'.
func loadStructuredFile(path string, parser koanf.Parser, now time.Time) ([]domain.ListedNumber, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load list file %s: %w", path, err)
	}

	defaultLabel := k.String("label")
	defaultUpdated := now
	if k.Exists("updated") {
		t := k.Time("updated", time.RFC3339)
		if t.IsZero() {
			return nil, fmt.Errorf("list file %s: invalid 'updated' time %q", path, k.String("updated"))
		}
		defaultUpdated = t
	}

	if !k.Exists("numbers") {
		return nil, fmt.Errorf("list file %s missing 'numbers'", path)
	}

	entries := k.Slices("numbers")
	out := make([]domain.ListedNumber, 0, len(entries))
	for i, e := range entries {
		raw := strings.TrimSpace(e.String("number"))
		if raw == "" {
			return nil, fmt.Errorf("list file %s: entry %d has no number", path, i)
		}

		label := e.String("label")
		if label == "" {
			label = defaultLabel
		}

		international := utils.IsInternationalNumber(raw)
		if e.Exists("international") {
			international = e.Bool("international")
		}

		updated := defaultUpdated
		if e.Exists("updated") {
			if t := e.Time("updated", time.RFC3339); !t.IsZero() {
				updated = t
			}
		}

		n, err := domain.NewAuthorityNumber(raw, label, international, updated)
		if err != nil {
			return nil, fmt.Errorf("list file %s: entry %d: %w", path, i, err)
		}
		out = append(out, n)
	}
	return out, nil
}
