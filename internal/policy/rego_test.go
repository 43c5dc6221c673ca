package policy

import (
	"context"
	"testing"

	"nullid/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegoAgreesWithTable(t *testing.T) {
	ctx := context.Background()
	table := DefaultTable()
	rego, err := NewRegoAuthorizer(ctx, table)
	require.NoError(t, err)

	keys := []string{
		"uploads/report.csv",
		"uploads/nested/report.csv",
		"anonymized/report_anonymized.csv",
		"logs/run.log",
		"secrets/x",
		"uploads/",
	}
	classes := []domain.PrincipalClass{domain.PrincipalGuest, domain.PrincipalAuthenticated, domain.PrincipalFunction}

	for _, class := range classes {
		for _, op := range allOps {
			for _, key := range keys {
				p := domain.Principal{Subject: "s", Class: class}
				want := table.Authorize(ctx, p, op, key) == nil
				got := rego.Authorize(ctx, p, op, key) == nil
				assert.Equal(t, want, got, "%s %s %s", class, op, key)
			}
		}
	}
}

func TestRegoPrefixAndInvalidKeys(t *testing.T) {
	ctx := context.Background()
	rego, err := NewRegoAuthorizer(ctx, DefaultTable())
	require.NoError(t, err)

	user := domain.Principal{Subject: "u", Class: domain.PrincipalAuthenticated}
	assert.NoError(t, rego.AuthorizePrefix(ctx, user, domain.OpRead, "anonymized/"))
	assert.ErrorIs(t, rego.AuthorizePrefix(ctx, user, domain.OpWrite, "anonymized/"), ErrAccessDenied)
	assert.ErrorIs(t, rego.Authorize(ctx, user, domain.OpRead, "uploads/../logs/x"), domain.ErrInvalidKey)
}
