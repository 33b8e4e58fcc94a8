// Package report turns the unstructured analysis text returned by the model
// into an ordered sequence of classified lines for rendering.
package report

import (
	"regexp"
	"strings"
)

// Kind classifies a single line of analysis text.
type Kind string

const (
	// SectionHeader is a numbered heading such as "1. Weed Identification:".
	SectionHeader Kind = "section"
	// LabeledRow is a dash-prefixed "Label: value" pair.
	LabeledRow Kind = "label"
	// BulletRow is a dash-prefixed line without a label.
	BulletRow Kind = "bullet"
	// Paragraph is any other non-blank line.
	Paragraph Kind = "paragraph"
)

// Line is one classified line of the analysis text.
type Line struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
}

// decoration strips the markdown characters the model tends to sprinkle in.
var decoration = strings.NewReplacer("*", "", "_", "", "#", "", "`", "")

var sectionPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Format splits text into lines and classifies each one. It is pure: the same
// input always yields the same sequence, in input order. Lines that are blank
// after stripping markdown decoration produce no output.
func Format(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(decoration.Replace(raw))
		if line == "" {
			continue
		}
		lines = append(lines, classify(line))
	}
	return lines
}

// classify applies the classification rules to a single stripped line.
func classify(line string) Line {
	if sectionPrefix.MatchString(line) {
		return Line{Kind: SectionHeader, Text: sectionPrefix.ReplaceAllString(line, "")}
	}
	if strings.HasPrefix(line, "-") {
		rest := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if label, value, ok := strings.Cut(rest, ":"); ok {
			return Line{
				Kind:  LabeledRow,
				Label: strings.TrimSpace(label),
				Value: strings.TrimSpace(value),
			}
		}
		return Line{Kind: BulletRow, Text: rest}
	}
	return Line{Kind: Paragraph, Text: line}
}
