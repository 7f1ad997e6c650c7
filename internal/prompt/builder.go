// Package prompt renders the research prompt for one company.
//
// The template file is plain text with a single {company_name} placeholder.
// Doubled braces ({{ and }}) are literal braces, so a template may contain
// JSON examples without escaping trouble.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/fleveque/company-summarizer/internal/model"
)

// Placeholder is the only substitution the template supports.
const Placeholder = "company_name"

// Builder holds a parsed template. It is immutable and safe to share.
type Builder struct {
	parts []segment
}

// segment is either literal text or the company-name slot.
type segment struct {
	text string
	slot bool
}

// Load reads and parses a template file. Every failure is a configuration error.
func Load(path string) (*Builder, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: prompt template path is empty", model.ErrConfiguration)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading prompt template: %w", model.ErrConfiguration, err)
	}
	return Parse(string(data))
}

// Parse builds a Builder from template text.
func Parse(tmpl string) (*Builder, error) {
	var (
		parts []segment
		lit   strings.Builder
		slots int
	)

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch {
		case ch == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			lit.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			lit.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d in prompt template", model.ErrConfiguration, i)
			}
			name := tmpl[i+1 : i+1+end]
			if name != Placeholder {
				return nil, fmt.Errorf("%w: unknown placeholder {%s} in prompt template", model.ErrConfiguration, name)
			}
			if lit.Len() > 0 {
				parts = append(parts, segment{text: lit.String()})
				lit.Reset()
			}
			parts = append(parts, segment{slot: true})
			slots++
			i += end + 1
		case ch == '}':
			return nil, fmt.Errorf("%w: single '}' at offset %d in prompt template", model.ErrConfiguration, i)
		default:
			lit.WriteByte(ch)
		}
	}
	if lit.Len() > 0 {
		parts = append(parts, segment{text: lit.String()})
	}

	if slots == 0 {
		return nil, fmt.Errorf("%w: prompt template has no {%s} placeholder", model.ErrConfiguration, Placeholder)
	}
	return &Builder{parts: parts}, nil
}

// Build renders the prompt for companyName.
func (b *Builder) Build(companyName string) string {
	var sb strings.Builder
	for _, p := range b.parts {
		if p.slot {
			sb.WriteString(companyName)
		} else {
			sb.WriteString(p.text)
		}
	}
	return sb.String()
}

// Request renders the prompt and pairs it with the sampling parameters.
func (b *Builder) Request(companyName string, params model.Parameters) *model.CompletionRequest {
	return &model.CompletionRequest{
		CompanyName: companyName,
		Prompt:      b.Build(companyName),
		Params:      params,
	}
}
