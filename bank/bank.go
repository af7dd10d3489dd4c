// Package bank keeps native-value balances per identity and denomination.
package bank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/storage"
)

var (
	// ErrInsufficientFunds is returned when a sender lacks the native value it tries to move.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidCoins is returned for empty denominations or zero amounts.
	ErrInvalidCoins = errors.New("invalid coins")
)

var balances = storage.NewMap[*uint256.Int]("balances")

func balanceKey(owner common.Address, denom string) string {
	return owner.Hex() + "/" + denom
}

// Bank operates on native balances within a single transaction.
type Bank struct {
	tx interfaces.KVTx
}

// New binds a Bank to tx. The transaction should already be scoped to the bank's namespace.
func New(tx interfaces.KVTx) *Bank {
	return &Bank{tx: tx}
}

// Balance returns owner's balance in denom, zero if none.
func (b *Bank) Balance(owner common.Address, denom string) (*uint256.Int, error) {
	amount, err := balances.Load(b.tx, balanceKey(owner, denom))
	if errors.Is(err, interfaces.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// AllBalances returns owner's non-zero balances ordered by denomination.
func (b *Bank) AllBalances(owner common.Address) (interfaces.Coins, error) {
	coins := interfaces.Coins{}
	prefix := owner.Hex() + "/"
	err := balances.RangePrefix(b.tx, prefix, func(key string, amount *uint256.Int) error {
		if amount.IsZero() {
			return nil
		}
		coins = append(coins, interfaces.Coin{Denom: strings.TrimPrefix(key, prefix), Amount: amount})
		return nil
	})
	return coins, err
}

// Send moves coins from one identity to another.
func (b *Bank) Send(from, to common.Address, coins interfaces.Coins) error {
	if err := ValidateCoins(coins); err != nil {
		return err
	}
	for _, c := range coins {
		if err := b.sub(from, c); err != nil {
			return err
		}
		if err := b.add(to, c); err != nil {
			return err
		}
	}
	return nil
}

// Mint creates native value out of thin air. It is used for genesis funding only.
func (b *Bank) Mint(to common.Address, coins interfaces.Coins) error {
	if err := ValidateCoins(coins); err != nil {
		return err
	}
	for _, c := range coins {
		if err := b.add(to, c); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bank) add(owner common.Address, c interfaces.Coin) error {
	current, err := b.Balance(owner, c.Denom)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(current, c.Amount)
	if overflow {
		return fmt.Errorf("balance overflow for %s in %s", owner.Hex(), c.Denom)
	}
	return balances.Save(b.tx, balanceKey(owner, c.Denom), updated)
}

func (b *Bank) sub(owner common.Address, c interfaces.Coin) error {
	current, err := b.Balance(owner, c.Denom)
	if err != nil {
		return err
	}
	if current.Lt(c.Amount) {
		return fmt.Errorf("%w: %s has %s%s, needs %s", ErrInsufficientFunds, owner.Hex(), current.Dec(), c.Denom, c.String())
	}
	updated := new(uint256.Int).Sub(current, c.Amount)
	if updated.IsZero() {
		return balances.Remove(b.tx, balanceKey(owner, c.Denom))
	}
	return balances.Save(b.tx, balanceKey(owner, c.Denom), updated)
}

// ValidateCoins checks that every coin has a denomination and a positive amount.
func ValidateCoins(coins interfaces.Coins) error {
	for _, c := range coins {
		if strings.TrimSpace(c.Denom) == "" {
			return fmt.Errorf("%w: empty denomination", ErrInvalidCoins)
		}
		if c.IsZero() {
			return fmt.Errorf("%w: zero amount of %s", ErrInvalidCoins, c.Denom)
		}
	}
	return nil
}
