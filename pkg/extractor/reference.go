package extractor

import (
	"regexp"
	"strings"
)

var (
	referenceRe = regexp.MustCompile(
		`(?i)(tender\s*ref(?:erence)?\b\.?(?:\s*(?:number|no)\b\.?)?|tender\s*no\b\.?)[\s:\-]*([^\n\r]*)`,
	)
	// An issuance date or "dt" marker ends the identifier.
	referenceStopRe = regexp.MustCompile(`(?i)\bdt\b|\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`)
)

// ExtractReferenceNumber returns the tender reference number found in text,
// or "" when no reference label is present.
func ExtractReferenceNumber(text string) string {
	m := referenceRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return trimReference(m[2])
}

func trimReference(span string) string {
	if loc := referenceStopRe.FindStringIndex(span); loc != nil {
		span = span[:loc[0]]
	}
	return strings.TrimSpace(span)
}
