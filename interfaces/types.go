package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInvalidIdentity is returned when an identity string is not a well-formed address.
var ErrInvalidIdentity = errors.New("invalid identity")

// ParseIdentity parses a 20-byte hex address, with or without 0x prefix.
// Unlike common.HexToAddress it rejects malformed input instead of truncating it.
func ParseIdentity(addr string) (common.Address, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(clean) != 40 {
		return common.Address{}, fmt.Errorf("%w: hex string must be 40 characters, got %q", ErrInvalidIdentity, addr)
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	return common.BytesToAddress(addrBytes), nil
}

// Coin is an amount of a single native denomination.
type Coin struct {
	Denom  string       `json:"denom"`
	Amount *uint256.Int `json:"amount"`
}

// NewCoin is a convenience constructor for small amounts.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: uint256.NewInt(amount)}
}

// IsZero reports whether the coin carries no value.
func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.IsZero()
}

// String renders the coin as "<amount><denom>".
func (c Coin) String() string {
	if c.Amount == nil {
		return "0" + c.Denom
	}
	return c.Amount.Dec() + c.Denom
}

// Coins is a list of native coins, as attached to a request.
type Coins []Coin

// NonZero returns the coins with a positive amount.
func (cs Coins) NonZero() Coins {
	var res Coins
	for _, c := range cs {
		if !c.IsZero() {
			res = append(res, c)
		}
	}
	return res
}

// Sorted returns a copy ordered by denomination.
func (cs Coins) Sorted() Coins {
	res := make(Coins, len(cs))
	copy(res, cs)
	sort.Slice(res, func(i, j int) bool { return res[i].Denom < res[j].Denom })
	return res
}

// AmountOf sums the amounts of the given denomination.
func (cs Coins) AmountOf(denom string) *uint256.Int {
	total := new(uint256.Int)
	for _, c := range cs {
		if c.Denom == denom && c.Amount != nil {
			total.Add(total, c.Amount)
		}
	}
	return total
}

// String renders the coins comma separated.
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
