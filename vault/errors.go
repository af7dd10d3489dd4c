package vault

import "errors"

var (
	// ErrUnauthorized is returned when the caller fails the authorization policy.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPayment is returned when the attached native value is missing or malformed.
	ErrPayment = errors.New("payment error")

	// ErrVaultDoesNotExist is returned when a denomination has no registered issuer.
	ErrVaultDoesNotExist = errors.New("vault does not exist")

	// ErrVaultAlreadyExists is returned by AddVault for an already registered denomination.
	ErrVaultAlreadyExists = errors.New("vault already exists")

	// ErrInvalidDenomination is returned for empty denominations.
	ErrInvalidDenomination = errors.New("invalid denomination")

	// ErrInvalidMessage is returned when a message carries no operation or more than one.
	ErrInvalidMessage = errors.New("invalid message")
)
