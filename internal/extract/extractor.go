// Package extract pulls structured fields out of a free-text summary.
//
// A summary is split into sections by its headers. A header is one of a
// fixed set of names at the start of a line, optionally dressed up with
// markdown (#, *, -) or numbering, and followed by a colon or end of line:
//
//	COMPANY OVERVIEW: ...
//	## Industry & Sector
//	**3. Data Confidence:** High
package extract

import (
	"regexp"
	"strings"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Recognized section headers.
const (
	HeaderCompanyOverview = "COMPANY OVERVIEW"
	HeaderIndustry        = "INDUSTRY & SECTOR"
	HeaderKeyActivities   = "KEY BUSINESS ACTIVITIES"
	HeaderTargetMarket    = "TARGET MARKET"
	HeaderBusinessModel   = "BUSINESS MODEL"
	HeaderDataConfidence  = "DATA CONFIDENCE"
)

// fieldFor maps headers to the metadata they fill. COMPANY OVERVIEW has no
// field but still bounds the section before it.
var fieldFor = map[string]model.MetadataField{
	HeaderIndustry:       model.FieldIndustry,
	HeaderKeyActivities:  model.FieldKeyActivities,
	HeaderTargetMarket:   model.FieldTargetMarket,
	HeaderBusinessModel:  model.FieldBusinessModel,
	HeaderDataConfidence: model.FieldDataConfidence,
}

// headerRe matches a header line. Group 1 is the header name; the match ends
// right after the colon (or at end of line), where the section body starts.
// "&" is allowed to be spelled "and".
var headerRe = regexp.MustCompile(
	`(?im)^[ \t]*(?:[#*\->]+[ \t]*)*(?:\d+[.)][ \t]*)?(?:\*\*|__)?[ \t]*` +
		`(COMPANY OVERVIEW|INDUSTRY[ \t]*(?:&|AND)[ \t]*SECTOR|KEY BUSINESS ACTIVITIES|TARGET MARKET|BUSINESS MODEL|DATA CONFIDENCE)` +
		`[ \t]*(?:\*\*|__)?[ \t\r]*(?::[ \t]*(?:\*\*|__)?|$)`,
)

// leadingWord grabs the first word of the confidence value.
var leadingWord = regexp.MustCompile(`^[^A-Za-z]*([A-Za-z]+)`)

// Extract returns the metadata found in text. It never fails: a missing
// header leaves its field absent, an empty section yields an empty value.
func Extract(text string) model.Metadata {
	var md model.Metadata

	matches := headerRe.FindAllStringSubmatchIndex(text, -1)
	seen := make(map[string]bool, len(matches))

	for i, m := range matches {
		header := canonical(text[m[2]:m[3]])

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		// First occurrence wins; later duplicates only bound the previous section.
		if seen[header] {
			continue
		}
		seen[header] = true

		field, ok := fieldFor[header]
		if !ok {
			continue
		}

		value := strings.TrimSpace(text[m[1]:end])
		if field == model.FieldDataConfidence {
			level, recognized := normalizeConfidence(value)
			if recognized {
				value = level
			} else if value != "" {
				md.ConfidenceUnrecognized = true
			}
		}
		md.Set(field, value)
	}

	return md
}

// canonical upper-cases a header and folds "and"/spacing variants of
// INDUSTRY & SECTOR to the standard spelling.
func canonical(h string) string {
	h = strings.ToUpper(strings.Join(strings.Fields(h), " "))
	if strings.HasPrefix(h, "INDUSTRY") {
		return HeaderIndustry
	}
	return h
}

// normalizeConfidence reads the leading word of v as HIGH, MEDIUM or LOW.
func normalizeConfidence(v string) (string, bool) {
	m := leadingWord.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	switch strings.ToUpper(m[1]) {
	case model.ConfidenceHigh:
		return model.ConfidenceHigh, true
	case model.ConfidenceMedium:
		return model.ConfidenceMedium, true
	case model.ConfidenceLow:
		return model.ConfidenceLow, true
	}
	return "", false
}
