package policy

import (
	"context"
	"fmt"

	"nullid/internal/domain"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
)

const regoModule = `package nullid.storage

default allow = false

default allow_prefix = false

allow {
	rule := data.nullid.rules[_]
	rule.principal == input.principal
	startswith(input.key, rule.prefix)
	count(input.key) > count(rule.prefix)
	rule.operations[_] == input.operation
}

allow_prefix {
	rule := data.nullid.rules[_]
	rule.principal == input.principal
	startswith(input.key, rule.prefix)
	rule.operations[_] == input.operation
}
`

// RegoAuthorizer evaluates a Table with OPA. The table is loaded as data so the
// Rego module stays fixed.
type RegoAuthorizer struct {
	allow       rego.PreparedEvalQuery
	allowPrefix rego.PreparedEvalQuery
}

var _ Authorizer = (*RegoAuthorizer)(nil)

func NewRegoAuthorizer(ctx context.Context, table *Table) (*RegoAuthorizer, error) {
	rules := make([]interface{}, 0, len(table.rules))
	for _, r := range table.rules {
		ops := make([]interface{}, 0, len(r.Operations))
		for _, o := range r.Operations {
			ops = append(ops, string(o))
		}
		rules = append(rules, map[string]interface{}{
			"prefix":     r.prefix,
			"principal":  string(r.Principal),
			"operations": ops,
		})
	}
	store := inmem.NewFromObject(map[string]interface{}{
		"nullid": map[string]interface{}{"rules": rules},
	})

	prepare := func(query string) (rego.PreparedEvalQuery, error) {
		return rego.New(
			rego.Query(query),
			rego.Module("nullid_storage.rego", regoModule),
			rego.Store(store),
		).PrepareForEval(ctx)
	}

	allow, err := prepare("data.nullid.storage.allow")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare allow query: %w", err)
	}
	allowPrefix, err := prepare("data.nullid.storage.allow_prefix")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare allow_prefix query: %w", err)
	}
	return &RegoAuthorizer{allow: allow, allowPrefix: allowPrefix}, nil
}

func (a *RegoAuthorizer) Authorize(ctx context.Context, principal domain.Principal, op domain.Operation, key string) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	ok, err := eval(ctx, a.allow, principal, op, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot %s %s", ErrAccessDenied, principal.Class, op, key)
	}
	return nil
}

func (a *RegoAuthorizer) AuthorizePrefix(ctx context.Context, principal domain.Principal, op domain.Operation, prefix string) error {
	if prefix == "" || domain.ValidateKey(prefix) != nil {
		return fmt.Errorf("%w: %s cannot %s under %q", ErrAccessDenied, principal.Class, op, prefix)
	}
	ok, err := eval(ctx, a.allowPrefix, principal, op, prefix)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot %s under %q", ErrAccessDenied, principal.Class, op, prefix)
	}
	return nil
}

func eval(ctx context.Context, q rego.PreparedEvalQuery, principal domain.Principal, op domain.Operation, key string) (bool, error) {
	rs, err := q.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"principal": string(principal.Class),
		"operation": string(op),
		"key":       key,
	}))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, _ := rs[0].Expressions[0].Value.(bool)
	return allowed, nil
}
