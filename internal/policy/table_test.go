package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nullid/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allOps = []domain.Operation{domain.OpRead, domain.OpWrite}

func TestGuestDeniedEverywhere(t *testing.T) {
	table := DefaultTable()
	for _, key := range []string{"uploads/a.csv", "anonymized/a_anonymized.csv", "logs/run.log"} {
		for _, op := range allOps {
			assert.False(t, table.Allows(domain.PrincipalGuest, op, key), "%s %s", op, key)
		}
	}
}

func TestAuthenticatedGrantsAreExact(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		key  string
		want []domain.Operation
	}{
		{"uploads/report.csv", []domain.Operation{domain.OpRead, domain.OpWrite}},
		{"anonymized/report_anonymized.csv", []domain.Operation{domain.OpRead}},
		{"logs/run.log", []domain.Operation{domain.OpRead, domain.OpWrite}},
		{"secrets/key.pem", nil},
		{"uploads/", nil},
		{"uploadsx/report.csv", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Operations(domain.PrincipalAuthenticated, tt.key))
		})
	}
}

func TestNoWriteOnAnonymizedForUsers(t *testing.T) {
	table := DefaultTable()
	err := table.Authorize(context.Background(), domain.Principal{Subject: "u1", Class: domain.PrincipalAuthenticated}, domain.OpWrite, "anonymized/x.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestFunctionGrants(t *testing.T) {
	table := DefaultTable()
	assert.True(t, table.Allows(domain.PrincipalFunction, domain.OpWrite, "anonymized/x_anonymized.csv"))
	assert.True(t, table.Allows(domain.PrincipalFunction, domain.OpRead, "uploads/x.csv"))
	assert.False(t, table.Allows(domain.PrincipalFunction, domain.OpRead, "logs/x.log"))
}

func TestTraversalKeysDenied(t *testing.T) {
	table := DefaultTable()
	for _, key := range []string{"uploads/../secrets/x", "uploads//x", "/uploads/x", "uploads/./x"} {
		assert.False(t, table.Allows(domain.PrincipalAuthenticated, domain.OpRead, key), key)
	}
	err := table.Authorize(context.Background(), domain.Principal{Class: domain.PrincipalAuthenticated}, domain.OpRead, "uploads/../x")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestAllowsPrefix(t *testing.T) {
	table := DefaultTable()
	assert.True(t, table.AllowsPrefix(domain.PrincipalAuthenticated, domain.OpRead, "anonymized/"))
	assert.True(t, table.AllowsPrefix(domain.PrincipalAuthenticated, domain.OpRead, "uploads/2024/"))
	assert.False(t, table.AllowsPrefix(domain.PrincipalAuthenticated, domain.OpRead, ""))
	assert.False(t, table.AllowsPrefix(domain.PrincipalAuthenticated, domain.OpRead, "up"))
	assert.False(t, table.AllowsPrefix(domain.PrincipalGuest, domain.OpRead, "anonymized/"))
}

func TestPatternPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		wantErr bool
	}{
		{"uploads/*", "uploads/", false},
		{"uploads/{fileName}", "uploads/", false},
		{"data/raw/*", "data/raw/", false},
		{"uploads", "", true},
		{"/*", "", true},
		{"uploads/{}", "", true},
		{"uploads/*.csv", "", true},
		{"a/*/b/*", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := PatternPrefix(tt.pattern)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBothPatternFormsAreEquivalent(t *testing.T) {
	star := MustTable(Rule{Pattern: "logs/*", Principal: domain.PrincipalAuthenticated, Operations: allOps})
	named := MustTable(Rule{Pattern: "logs/{fileName}", Principal: domain.PrincipalAuthenticated, Operations: allOps})
	for _, key := range []string{"logs/a", "logs/b/c", "logs/", "log/a"} {
		for _, op := range allOps {
			assert.Equal(t, star.Allows(domain.PrincipalAuthenticated, op, key), named.Allows(domain.PrincipalAuthenticated, op, key), key)
		}
	}
}

func TestNewTableRejectsBadRules(t *testing.T) {
	_, err := NewTable(Rule{Pattern: "uploads/*", Principal: "admin", Operations: allOps})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = NewTable(Rule{Pattern: "uploads/*", Principal: domain.PrincipalAuthenticated})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = NewTable(Rule{Pattern: "uploads/*", Principal: domain.PrincipalAuthenticated, Operations: []domain.Operation{"delete"}})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestLoadRoundTripsDefaultTable(t *testing.T) {
	data, err := DefaultTable().Marshal()
	require.NoError(t, err)

	loaded, err := Load(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, loaded.Rules(), len(DefaultTable().Rules()))
	assert.True(t, loaded.Allows(domain.PrincipalAuthenticated, domain.OpRead, "anonymized/a.json"))
	assert.False(t, loaded.Allows(domain.PrincipalAuthenticated, domain.OpWrite, "anonymized/a.json"))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("rules:\n  - pattern: uploads/*\n    principal: authenticated\n    operations: [read]\n    effect: allow\n"))
	assert.Error(t, err)
}
