package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenIssuer is a receipt-token component bound to a calling identity.
// Every call is synchronous and may fail; a failure aborts the enclosing request.
type TokenIssuer interface {
	// Address returns the issuer's own identity.
	Address() common.Address

	// Mint creates amount new tokens for recipient. The caller must be the minter.
	Mint(ctx context.Context, recipient common.Address, amount *uint256.Int) error

	// Burn destroys amount tokens from the caller's balance.
	Burn(ctx context.Context, amount *uint256.Int) error

	// BurnFrom destroys amount tokens from owner's balance, spending the
	// allowance owner granted to the caller.
	BurnFrom(ctx context.Context, owner common.Address, amount *uint256.Int) error

	// Balance returns owner's token balance.
	Balance(ctx context.Context, owner common.Address) (*uint256.Int, error)
}

// IssuerFactory creates TokenIssuer capabilities for issuer addresses.
type IssuerFactory interface {
	IssuerFor(address common.Address) (TokenIssuer, error)
}

// NativeBank moves native value on behalf of a fixed sender.
type NativeBank interface {
	// Send transfers coins from the bound sender to recipient.
	Send(ctx context.Context, recipient common.Address, coins Coins) error

	// Balance returns the native balance of owner in denom.
	Balance(ctx context.Context, owner common.Address, denom string) (*uint256.Int, error)
}
