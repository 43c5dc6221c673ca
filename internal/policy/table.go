// Package policy holds the storage access rules: which principal class may
// read or write which key prefix. Rules are static; a Table is safe for
// concurrent use once built.
package policy

import (
	"context"
	"fmt"
	"strings"

	"nullid/internal/domain"
)

// Authorizer decides whether a principal may perform an operation on a key.
type Authorizer interface {
	Authorize(ctx context.Context, principal domain.Principal, op domain.Operation, key string) error
	AuthorizePrefix(ctx context.Context, principal domain.Principal, op domain.Operation, prefix string) error
}

// Rule grants a set of operations on every key under Pattern to one principal class.
// Pattern is either "prefix/*" or "prefix/{name}".
type Rule struct {
	Pattern    string
	Principal  domain.PrincipalClass
	Operations []domain.Operation

	prefix string
}

func (r Rule) Prefix() string {
	return r.prefix
}

func (r Rule) grants(op domain.Operation) bool {
	for _, o := range r.Operations {
		if o == op {
			return true
		}
	}
	return false
}

type Table struct {
	rules []Rule
}

var _ Authorizer = (*Table)(nil)

func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		prefix, err := PatternPrefix(r.Pattern)
		if err != nil {
			return nil, err
		}
		if _, err := domain.ParsePrincipalClass(string(r.Principal)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		if len(r.Operations) == 0 {
			return nil, fmt.Errorf("%w: %s has no operations", ErrInvalidRule, r.Pattern)
		}
		for _, op := range r.Operations {
			if _, err := domain.ParseOperation(string(op)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
			}
		}
		r.prefix = prefix
		r.Operations = append([]domain.Operation(nil), r.Operations...)
		t.rules = append(t.rules, r)
	}
	return t, nil
}

func MustTable(rules ...Rule) *Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// UserRules are the grants of signed-in users on the storage bucket.
func UserRules() []Rule {
	return []Rule{
		{Pattern: "uploads/*", Principal: domain.PrincipalAuthenticated, Operations: []domain.Operation{domain.OpRead, domain.OpWrite}},
		{Pattern: "anonymized/*", Principal: domain.PrincipalAuthenticated, Operations: []domain.Operation{domain.OpRead}},
		{Pattern: "logs/*", Principal: domain.PrincipalAuthenticated, Operations: []domain.Operation{domain.OpRead, domain.OpWrite}},
	}
}

// FunctionRules are the grants of the processing function.
func FunctionRules() []Rule {
	return []Rule{
		{Pattern: "uploads/*", Principal: domain.PrincipalFunction, Operations: []domain.Operation{domain.OpRead, domain.OpWrite}},
		{Pattern: "anonymized/*", Principal: domain.PrincipalFunction, Operations: []domain.Operation{domain.OpRead, domain.OpWrite}},
	}
}

func DefaultTable() *Table {
	return MustTable(append(UserRules(), FunctionRules()...)...)
}

func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Allows reports whether class may perform op on key. Only keys strictly below
// a rule prefix match; the prefix itself is not an object.
func (t *Table) Allows(class domain.PrincipalClass, op domain.Operation, key string) bool {
	if domain.ValidateKey(key) != nil {
		return false
	}
	for _, r := range t.rules {
		if r.Principal != class || !r.grants(op) {
			continue
		}
		if strings.HasPrefix(key, r.prefix) && len(key) > len(r.prefix) {
			return true
		}
	}
	return false
}

// AllowsPrefix reports whether class may perform op on every key under prefix.
func (t *Table) AllowsPrefix(class domain.PrincipalClass, op domain.Operation, prefix string) bool {
	if prefix == "" || domain.ValidateKey(prefix) != nil {
		return false
	}
	for _, r := range t.rules {
		if r.Principal == class && r.grants(op) && strings.HasPrefix(prefix, r.prefix) {
			return true
		}
	}
	return false
}

// Operations lists what class may do on key, in table order without duplicates.
func (t *Table) Operations(class domain.PrincipalClass, key string) []domain.Operation {
	var ops []domain.Operation
	for _, op := range []domain.Operation{domain.OpRead, domain.OpWrite} {
		if t.Allows(class, op, key) {
			ops = append(ops, op)
		}
	}
	return ops
}

func (t *Table) Authorize(_ context.Context, principal domain.Principal, op domain.Operation, key string) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if !t.Allows(principal.Class, op, key) {
		return fmt.Errorf("%w: %s cannot %s %s", ErrAccessDenied, principal.Class, op, key)
	}
	return nil
}

func (t *Table) AuthorizePrefix(_ context.Context, principal domain.Principal, op domain.Operation, prefix string) error {
	if !t.AllowsPrefix(principal.Class, op, prefix) {
		return fmt.Errorf("%w: %s cannot %s under %q", ErrAccessDenied, principal.Class, op, prefix)
	}
	return nil
}

// PatternPrefix turns "uploads/*" or "uploads/{fileName}" into "uploads/".
func PatternPrefix(pattern string) (string, error) {
	i := strings.LastIndex(pattern, "/")
	if i <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	prefix, last := pattern[:i+1], pattern[i+1:]
	switch {
	case last == "*":
	case len(last) > 2 && strings.HasPrefix(last, "{") && strings.HasSuffix(last, "}"):
	default:
		return "", fmt.Errorf("%w: %q must end in /* or /{name}", ErrInvalidPattern, pattern)
	}
	if domain.ValidateKey(prefix) != nil || strings.ContainsAny(prefix, "*{}") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return prefix, nil
}
