package domain

import "github.com/pkg/errors"

var (
	// ErrUnknownPrincipal is returned when an identity is not registered.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrDuplicatePrincipal is returned when an identity is registered twice.
	ErrDuplicatePrincipal = errors.New("principal already registered")
	// ErrUnsupportedAttack is returned when an attack kind cannot be applied
	// to the chosen protocol variant.
	ErrUnsupportedAttack = errors.New("unsupported attack")
)
