package vault

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
)

// Bond mints receipt tokens to the sender for the single coin attached to the
// request. The coin stays with the vault as collateral. When denom or amount
// are given they must match the attached coin.
func (c *Contract) Bond(ctx context.Context, env Env, info MessageInfo, denom string, amount *uint256.Int) (*interfaces.Response, error) {
	coin, err := oneCoin(info.Funds)
	if err != nil {
		return nil, err
	}
	if denom != "" && denom != coin.Denom {
		return nil, fmt.Errorf("%w: bond of %s but %s attached", ErrPayment, denom, coin.Denom)
	}
	if amount != nil && !amount.Eq(coin.Amount) {
		return nil, fmt.Errorf("%w: bond of %s%s but %s attached", ErrPayment, amount.Dec(), coin.Denom, coin)
	}

	issuerAddr, err := c.GetIssuer(env.Store, coin.Denom)
	if err != nil {
		return nil, err
	}
	issuer, err := env.Issuers.IssuerFor(issuerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve issuer %s: %w", issuerAddr.Hex(), err)
	}

	if err := issuer.Mint(ctx, info.Sender, coin.Amount); err != nil {
		return nil, err
	}

	c.log.Info("Bonded", "sender", info.Sender.Hex(), "coin", coin.String(), "issuer", issuerAddr.Hex())
	return interfaces.NewResponse("bond").
		AddAttribute("sender", info.Sender.Hex()).
		AddAttribute("denom", coin.Denom).
		AddAttribute("amount", coin.Amount.Dec()), nil
}

// Unbond burns amount receipt tokens from the sender, using the allowance the
// sender granted the vault on the issuer, and returns the same amount of
// native denom from the vault's collateral.
func (c *Contract) Unbond(ctx context.Context, env Env, info MessageInfo, denom string, amount *uint256.Int) (*interfaces.Response, error) {
	if err := nonpayable(info); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, fmt.Errorf("%w: unbond amount must be positive", ErrPayment)
	}

	issuerAddr, err := c.GetIssuer(env.Store, denom)
	if err != nil {
		return nil, err
	}
	issuer, err := env.Issuers.IssuerFor(issuerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve issuer %s: %w", issuerAddr.Hex(), err)
	}

	if err := issuer.BurnFrom(ctx, info.Sender, amount); err != nil {
		return nil, err
	}

	payout := interfaces.Coins{{Denom: denom, Amount: amount}}
	if err := env.Bank.Send(ctx, info.Sender, payout); err != nil {
		return nil, fmt.Errorf("return collateral: %w", err)
	}

	c.log.Info("Unbonded", "sender", info.Sender.Hex(), "coin", payout[0].String(), "issuer", issuerAddr.Hex())
	return interfaces.NewResponse("unbond").
		AddAttribute("sender", info.Sender.Hex()).
		AddAttribute("denom", denom).
		AddAttribute("amount", amount.Dec()), nil
}

// oneCoin requires exactly one non-zero coin.
func oneCoin(funds interfaces.Coins) (interfaces.Coin, error) {
	switch len(funds) {
	case 0:
		return interfaces.Coin{}, fmt.Errorf("%w: expected one coin, got none", ErrPayment)
	case 1:
		if funds[0].IsZero() {
			return interfaces.Coin{}, fmt.Errorf("%w: expected one coin, got zero %s", ErrPayment, funds[0].Denom)
		}
		return funds[0], nil
	default:
		return interfaces.Coin{}, fmt.Errorf("%w: expected one coin, got %d denominations", ErrPayment, len(funds))
	}
}
