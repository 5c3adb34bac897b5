package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

// Display templates per counter. Unknown counters fall back to a generic
// scoped template.
var templates = map[string]string{
	"VOUCHER": "FV-{YYYY}-{SEQ5}",
	"RECEIPT": "RC-{YYYY}-{SEQ6}",
	"SALARY":  "SAL-{YYYY}-{SEQ5}",
}

const fallbackTemplate = "DOC-{YYYY}-{SEQ6}"

// Number formats a human-readable document number for a counter from its
// allocation time and monotonic sequence value.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func Number(counterID string, at time.Time, seq int64) (string, error) {
	if seq <= 0 {
		return "", fmt.Errorf("invalid sequence value: %d", seq)
	}

	template, ok := templates[strings.ToUpper(strings.TrimSpace(counterID))]
	if !ok {
		template = fallbackTemplate
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", at.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", at.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", at.Format("01"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m // should never happen
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in document number: %s", out)
	}

	return out, nil
}
