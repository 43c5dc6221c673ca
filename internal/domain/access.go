package domain

import "fmt"

type PrincipalClass string

const (
	PrincipalGuest         PrincipalClass = "guest"
	PrincipalAuthenticated PrincipalClass = "authenticated"
	PrincipalFunction      PrincipalClass = "function"
)

type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

type Principal struct {
	Subject string
	Class   PrincipalClass
}

func Guest() Principal {
	return Principal{Subject: "anonymous", Class: PrincipalGuest}
}

func (p Principal) IsAuthenticated() bool {
	return p.Class == PrincipalAuthenticated
}

func ParsePrincipalClass(s string) (PrincipalClass, error) {
	switch PrincipalClass(s) {
	case PrincipalGuest, PrincipalAuthenticated, PrincipalFunction:
		return PrincipalClass(s), nil
	default:
		return "", fmt.Errorf("unknown principal class %q", s)
	}
}

func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OpRead, OpWrite:
		return Operation(s), nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}
