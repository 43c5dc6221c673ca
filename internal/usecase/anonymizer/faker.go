package anonymizer

import (
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v6"
)

// Faker produces synthetic replacements for each kind of personal data.
type Faker interface {
	Fake(kind Kind) string
}

// GofakeitFaker is safe for concurrent use; the underlying generator is not.
type GofakeitFaker struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewFaker returns a generator. A zero seed draws from a random source.
func NewFaker(seed uint64) *GofakeitFaker {
	return &GofakeitFaker{faker: gofakeit.New(int64(seed))}
}

func (g *GofakeitFaker) Fake(kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := g.faker
	switch kind {
	case KindSSN:
		ssn := f.SSN()
		if len(ssn) == 9 {
			return ssn[:3] + "-" + ssn[3:5] + "-" + ssn[5:]
		}
		return ssn
	case KindCreditCard:
		return f.CreditCardNumber(nil)
	case KindEmail:
		return f.Email()
	case KindPhone:
		return f.Phone()
	case KindDriversLicense:
		return strings.ToUpper(f.Lexify("?")) + "-" + f.Numerify("#######")
	case KindPassport:
		return strings.ToUpper(f.Lexify("?")) + f.Numerify("########")
	default:
		return "[REDACTED]"
	}
}
