// Package quality decides whether a completion looks like a usable summary.
package quality

import (
	"fmt"
	"strings"
)

// Defaults used by NewValidator.
const (
	DefaultMinLength  = 100
	DefaultMinMarkers = 2
)

// DefaultMarkers are the section headers a well-formed summary carries.
var DefaultMarkers = []string{
	"COMPANY OVERVIEW",
	"INDUSTRY & SECTOR",
	"KEY BUSINESS ACTIVITIES",
}

// Verdict is the validator's decision. Reason is empty when Acceptable.
type Verdict struct {
	Acceptable bool
	Reason     string
}

// Validator is a pure function of its input; the zero value is not useful,
// use NewValidator.
type Validator struct {
	minLength  int
	minMarkers int
	markers    []string
}

// NewValidator returns a validator with the default thresholds.
func NewValidator() *Validator {
	return &Validator{
		minLength:  DefaultMinLength,
		minMarkers: DefaultMinMarkers,
		markers:    DefaultMarkers,
	}
}

// Validate checks length first, then section markers (case-insensitive).
func (v *Validator) Validate(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if n := len([]rune(trimmed)); n < v.minLength {
		return Verdict{Reason: fmt.Sprintf("response too short (%d characters, need at least %d)", n, v.minLength)}
	}

	upper := strings.ToUpper(trimmed)
	var missing []string
	found := 0
	for _, m := range v.markers {
		if strings.Contains(upper, m) {
			found++
		} else {
			missing = append(missing, m)
		}
	}

	if found < v.minMarkers {
		return Verdict{Reason: fmt.Sprintf("found %d of %d expected sections (missing: %s)",
			found, len(v.markers), strings.Join(missing, ", "))}
	}
	return Verdict{Acceptable: true}
}
