package model

import "errors"

// MetadataField names one structured value pulled out of a summary.
type MetadataField string

const (
	FieldIndustry       MetadataField = "industry"
	FieldKeyActivities  MetadataField = "key_activities"
	FieldTargetMarket   MetadataField = "target_market"
	FieldBusinessModel  MetadataField = "business_model"
	FieldDataConfidence MetadataField = "data_confidence"
)

// MetadataFields lists every field in output-column order.
var MetadataFields = []MetadataField{
	FieldDataConfidence,
	FieldIndustry,
	FieldKeyActivities,
	FieldTargetMarket,
	FieldBusinessModel,
}

// Confidence levels accepted for FieldDataConfidence.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Metadata holds whatever fields could be found in a summary. A field that
// was not found is simply absent; Value reports that with its second return.
//
// The zero value is ready to use.
type Metadata struct {
	values map[MetadataField]string

	// ConfidenceUnrecognized is set when a DATA CONFIDENCE section was present
	// but its value was not HIGH, MEDIUM or LOW. The raw value is kept.
	ConfidenceUnrecognized bool
}

// Value returns the field's text and whether it was present.
func (m Metadata) Value(f MetadataField) (string, bool) {
	v, ok := m.values[f]
	return v, ok
}

// Set stores a field value. Maps in Go must be initialized before writing,
// so Set lazily creates it, which keeps the zero Metadata usable.
func (m *Metadata) Set(f MetadataField, v string) {
	if m.values == nil {
		m.values = make(map[MetadataField]string)
	}
	m.values[f] = v
}

// Len returns how many fields are present.
func (m Metadata) Len() int { return len(m.values) }

// Sentinel errors. Callers use errors.Is to branch on the category.
var (
	// ErrConfiguration covers missing/invalid settings, credentials or prompt files.
	ErrConfiguration = errors.New("configuration error")

	// ErrData covers unusable input: no company column, empty sheet, no names.
	ErrData = errors.New("data error")
)
