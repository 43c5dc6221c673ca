// Package anonymizer replaces personal data found in CSV and JSON documents
// with synthetic values.
package anonymizer

import (
	"path"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFor picks the document format from the key's extension.
func FormatFor(key string) (Format, bool) {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return FormatJSON, true
	case ".csv":
		return FormatCSV, true
	default:
		return "", false
	}
}

// Stats counts replacements per kind of personal data.
type Stats map[Kind]int

func (s Stats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

type Anonymizer struct {
	detectors []Detector
	faker     Faker
}

func New(faker Faker, detectors ...Detector) *Anonymizer {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Anonymizer{
		detectors: detectors,
		faker:     faker,
	}
}

// Text runs every detector over s in order. Each match gets its own
// synthetic value.
func (a *Anonymizer) Text(s string, stats Stats) string {
	for _, d := range a.detectors {
		s = d.Pattern.ReplaceAllStringFunc(s, func(string) string {
			if stats != nil {
				stats[d.Kind]++
			}
			return a.faker.Fake(d.Kind)
		})
	}
	return s
}

// Document anonymizes a whole file body of the given format.
func (a *Anonymizer) Document(format Format, data []byte) ([]byte, Stats, error) {
	stats := make(Stats)
	switch format {
	case FormatJSON:
		out, err := a.JSON(data, stats)
		return out, stats, err
	case FormatCSV:
		out, err := a.CSV(data, stats)
		return out, stats, err
	default:
		return nil, stats, ErrUnsupportedFormat
	}
}
