package host

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/token"
)

// issuerFactory hands out token capabilities that act as sender within the
// current transaction.
type issuerFactory struct {
	c      *txContext
	sender common.Address
}

func (f *issuerFactory) IssuerFor(address common.Address) (interfaces.TokenIssuer, error) {
	tok, err := f.c.token(address)
	if err != nil {
		return nil, err
	}
	return &issuerClient{tok: tok, sender: f.sender}, nil
}

type issuerClient struct {
	tok    *token.Token
	sender common.Address
}

func (i *issuerClient) Address() common.Address {
	return i.tok.Address()
}

func (i *issuerClient) Mint(ctx context.Context, recipient common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.tok.Mint(i.sender, recipient, amount)
}

func (i *issuerClient) Burn(ctx context.Context, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.tok.Burn(i.sender, amount)
}

func (i *issuerClient) BurnFrom(ctx context.Context, owner common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.tok.BurnFrom(i.sender, owner, amount)
}

func (i *issuerClient) Balance(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	return i.tok.Balance(owner)
}

// bankAccount moves native value out of sender within the current transaction.
type bankAccount struct {
	c      *txContext
	sender common.Address
}

func (b *bankAccount) Send(ctx context.Context, recipient common.Address, coins interfaces.Coins) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.c.bank().Send(b.sender, recipient, coins)
}

func (b *bankAccount) Balance(ctx context.Context, owner common.Address, denom string) (*uint256.Int, error) {
	return b.c.bank().Balance(owner, denom)
}
