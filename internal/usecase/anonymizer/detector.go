package anonymizer

import "regexp"

type Kind string

const (
	KindSSN            Kind = "ssn"
	KindCreditCard     Kind = "credit_card"
	KindEmail          Kind = "email"
	KindPhone          Kind = "phone_number"
	KindDriversLicense Kind = "drivers_license"
	KindPassport       Kind = "passport_number"
)

// Detector finds one kind of personal data in free text.
type Detector struct {
	Kind    Kind
	Pattern *regexp.Regexp
}

// DefaultDetectors returns the detectors in the order they are applied.
// Earlier detectors win: a US SSN is replaced before the phone pattern can see it.
func DefaultDetectors() []Detector {
	return []Detector{
		{Kind: KindSSN, Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{Kind: KindCreditCard, Pattern: regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)},
		{Kind: KindEmail, Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
		{Kind: KindPhone, Pattern: regexp.MustCompile(`\b\d{3}[-.\s]??\d{3}[-.\s]??\d{4}\b`)},
		{Kind: KindDriversLicense, Pattern: regexp.MustCompile(`\b[A-Z]-\d{7}\b`)},
		{Kind: KindPassport, Pattern: regexp.MustCompile(`\b[A-Z]\d{7}\b`)},
	}
}
