package lists

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/common/utils"
	"github.com/haukened/callguard/internal/guard/domain"
)

// ParsePlainList parses a newline-delimited list of numbers into authority entries.
//
// Behavior:
// - Each line is "<number>" or "<number>,<label>"; lines without a label get defaultLabel
// - Supports comments starting with '#' (inline or whole-line)
// - A leading '+' marks the entry international
// - Skips empty lines and lines whose number normalizes to nothing
// - De-duplicates by normalized number while preserving first-seen order
// - Every entry is timestamped with now
func ParsePlainList(r io.Reader, defaultLabel string, logger log.Logger, now time.Time) ([]domain.ListedNumber, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]domain.ListedNumber, 0, 64)
	logger.Debug(map[string]any{"label": defaultLabel}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			logger.Debug(map[string]any{"line": lineNum}, "skip_comment")
			continue
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}

		raw, label, _ := strings.Cut(line, ",")
		raw = strings.TrimSpace(raw)
		label = strings.TrimSpace(label)
		if label == "" {
			label = defaultLabel
		}

		key := utils.NormalizeNumber(raw)
		if key == "" || key == "+" {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "skip_invalid_number")
			continue
		}
		if _, ok := seen[key]; ok {
			logger.Debug(map[string]any{"line": lineNum, "number": key}, "skip_duplicate")
			continue
		}

		n, err := domain.NewAuthorityNumber(raw, label, utils.IsInternationalNumber(raw), now)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw, "error": err.Error()}, "skip_constructor_error")
			continue
		}
		out = append(out, n)
		seen[key] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"count": len(out)}, "parse_plain_list_done")
	return out, nil
}
