// Package token implements the fungible receipt token that backs each
// registered denomination: balances, allowances, a single minter and
// mint/burn/burn-from operations.
package token

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/storage"
)

var (
	ErrUnauthorized          = errors.New("token: unauthorized")
	ErrInsufficientFunds     = errors.New("token: insufficient funds")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidZeroAmount     = errors.New("token: invalid zero amount")
	ErrCapExceeded           = errors.New("token: minting cannot exceed the cap")
	ErrInvalidMessage        = errors.New("token: invalid message")
)

type tokenInfo struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	TotalSupply *uint256.Int    `json:"total_supply"`
	Minter      *common.Address `json:"minter,omitempty"`
	Cap         *uint256.Int    `json:"cap,omitempty"`
}

var (
	info       = storage.NewItem[tokenInfo]("token_info")
	balances   = storage.NewMap[*uint256.Int]("balance")
	allowances = storage.NewMap[*uint256.Int]("allowance")
)

func allowanceKey(owner, spender common.Address) string {
	return owner.Hex() + spender.Hex()
}

// Token operates on one token's state within a single transaction.
type Token struct {
	tx      interfaces.KVTx
	address common.Address
}

// New binds the token at address to tx. The transaction should already be
// scoped to the token's namespace.
func New(tx interfaces.KVTx, address common.Address) *Token {
	return &Token{tx: tx, address: address}
}

// Address returns the token's own identity.
func (t *Token) Address() common.Address {
	return t.address
}

// Instantiate initializes token metadata, minter and initial balances.
func (t *Token) Instantiate(msg InstantiateMsg) error {
	ti := tokenInfo{
		Name:        msg.Name,
		Symbol:      msg.Symbol,
		Decimals:    msg.Decimals,
		TotalSupply: new(uint256.Int),
	}

	if msg.Mint != nil {
		minter, err := interfaces.ParseIdentity(msg.Mint.Minter)
		if err != nil {
			return fmt.Errorf("minter: %w", err)
		}
		ti.Minter = &minter
		ti.Cap = msg.Mint.Cap
	}

	for _, ib := range msg.InitialBalances {
		owner, err := interfaces.ParseIdentity(ib.Address)
		if err != nil {
			return fmt.Errorf("initial balance: %w", err)
		}
		if ib.Amount == nil || ib.Amount.IsZero() {
			continue
		}
		if err := t.credit(owner, ib.Amount); err != nil {
			return err
		}
		ti.TotalSupply.Add(ti.TotalSupply, ib.Amount)
	}

	if ti.Cap != nil && ti.TotalSupply.Gt(ti.Cap) {
		return ErrCapExceeded
	}
	return info.Save(t.tx, ti)
}

// Execute dispatches a token message sent by sender.
func (t *Token) Execute(sender common.Address, msg ExecuteMsg) (*interfaces.Response, error) {
	switch {
	case msg.Transfer != nil:
		recipient, err := interfaces.ParseIdentity(msg.Transfer.Recipient)
		if err != nil {
			return nil, err
		}
		if err := t.Transfer(sender, recipient, msg.Transfer.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("transfer").
			AddAttribute("from", sender.Hex()).
			AddAttribute("to", recipient.Hex()).
			AddAttribute("amount", msg.Transfer.Amount.Dec()), nil
	case msg.Burn != nil:
		if err := t.Burn(sender, msg.Burn.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("burn").
			AddAttribute("from", sender.Hex()).
			AddAttribute("amount", msg.Burn.Amount.Dec()), nil
	case msg.BurnFrom != nil:
		owner, err := interfaces.ParseIdentity(msg.BurnFrom.Owner)
		if err != nil {
			return nil, err
		}
		if err := t.BurnFrom(sender, owner, msg.BurnFrom.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("burn_from").
			AddAttribute("from", owner.Hex()).
			AddAttribute("by", sender.Hex()).
			AddAttribute("amount", msg.BurnFrom.Amount.Dec()), nil
	case msg.Mint != nil:
		recipient, err := interfaces.ParseIdentity(msg.Mint.Recipient)
		if err != nil {
			return nil, err
		}
		if err := t.Mint(sender, recipient, msg.Mint.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("mint").
			AddAttribute("to", recipient.Hex()).
			AddAttribute("amount", msg.Mint.Amount.Dec()), nil
	case msg.IncreaseAllowance != nil:
		spender, err := interfaces.ParseIdentity(msg.IncreaseAllowance.Spender)
		if err != nil {
			return nil, err
		}
		if err := t.IncreaseAllowance(sender, spender, msg.IncreaseAllowance.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("increase_allowance").
			AddAttribute("owner", sender.Hex()).
			AddAttribute("spender", spender.Hex()).
			AddAttribute("amount", msg.IncreaseAllowance.Amount.Dec()), nil
	case msg.DecreaseAllowance != nil:
		spender, err := interfaces.ParseIdentity(msg.DecreaseAllowance.Spender)
		if err != nil {
			return nil, err
		}
		if err := t.DecreaseAllowance(sender, spender, msg.DecreaseAllowance.Amount); err != nil {
			return nil, err
		}
		return interfaces.NewResponse("decrease_allowance").
			AddAttribute("owner", sender.Hex()).
			AddAttribute("spender", spender.Hex()).
			AddAttribute("amount", msg.DecreaseAllowance.Amount.Dec()), nil
	default:
		return nil, fmt.Errorf("%w: no operation set", ErrInvalidMessage)
	}
}

// Query answers a token query.
func (t *Token) Query(msg QueryMsg) (any, error) {
	switch {
	case msg.Balance != nil:
		owner, err := interfaces.ParseIdentity(msg.Balance.Address)
		if err != nil {
			return nil, err
		}
		balance, err := t.Balance(owner)
		if err != nil {
			return nil, err
		}
		return BalanceResponse{Balance: balance}, nil
	case msg.Allowance != nil:
		owner, err := interfaces.ParseIdentity(msg.Allowance.Owner)
		if err != nil {
			return nil, err
		}
		spender, err := interfaces.ParseIdentity(msg.Allowance.Spender)
		if err != nil {
			return nil, err
		}
		allowance, err := t.Allowance(owner, spender)
		if err != nil {
			return nil, err
		}
		return AllowanceResponse{Allowance: allowance}, nil
	case msg.TokenInfo != nil:
		ti, err := info.Load(t.tx)
		if err != nil {
			return nil, err
		}
		return TokenInfoResponse{Name: ti.Name, Symbol: ti.Symbol, Decimals: ti.Decimals, TotalSupply: ti.TotalSupply}, nil
	case msg.Minter != nil:
		ti, err := info.Load(t.tx)
		if err != nil {
			return nil, err
		}
		if ti.Minter == nil {
			return nil, nil
		}
		return MinterResponse{Minter: ti.Minter.Hex(), Cap: ti.Cap}, nil
	default:
		return nil, fmt.Errorf("%w: no query set", ErrInvalidMessage)
	}
}

// Mint creates amount tokens for recipient. Only the minter may mint.
func (t *Token) Mint(sender, recipient common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}

	ti, err := info.Load(t.tx)
	if err != nil {
		return err
	}
	if ti.Minter == nil || *ti.Minter != sender {
		return fmt.Errorf("%w: %s is not the minter", ErrUnauthorized, sender.Hex())
	}

	supply, overflow := new(uint256.Int).AddOverflow(ti.TotalSupply, amount)
	if overflow || (ti.Cap != nil && supply.Gt(ti.Cap)) {
		return ErrCapExceeded
	}
	ti.TotalSupply = supply

	if err := t.credit(recipient, amount); err != nil {
		return err
	}
	return info.Save(t.tx, ti)
}

// Burn destroys amount tokens held by sender.
func (t *Token) Burn(sender common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}
	if err := t.debit(sender, amount); err != nil {
		return err
	}
	return t.reduceSupply(amount)
}

// BurnFrom destroys amount tokens held by owner, spending owner's allowance to sender.
func (t *Token) BurnFrom(sender, owner common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}
	if err := t.spendAllowance(owner, sender, amount); err != nil {
		return err
	}
	if err := t.debit(owner, amount); err != nil {
		return err
	}
	return t.reduceSupply(amount)
}

// Transfer moves amount tokens from sender to recipient.
func (t *Token) Transfer(sender, recipient common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}
	if err := t.debit(sender, amount); err != nil {
		return err
	}
	return t.credit(recipient, amount)
}

// IncreaseAllowance raises the amount spender may burn or move on owner's behalf.
func (t *Token) IncreaseAllowance(owner, spender common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}
	if owner == spender {
		return fmt.Errorf("%w: cannot set allowance to own account", ErrInvalidMessage)
	}
	current, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("%w: allowance overflow", ErrInvalidMessage)
	}
	return allowances.Save(t.tx, allowanceKey(owner, spender), updated)
}

// DecreaseAllowance lowers spender's allowance, saturating at zero.
func (t *Token) DecreaseAllowance(owner, spender common.Address, amount *uint256.Int) error {
	if err := nonZero(amount); err != nil {
		return err
	}
	current, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if !current.Gt(amount) {
		return allowances.Remove(t.tx, allowanceKey(owner, spender))
	}
	return allowances.Save(t.tx, allowanceKey(owner, spender), new(uint256.Int).Sub(current, amount))
}

// Balance returns owner's balance, zero if none.
func (t *Token) Balance(owner common.Address) (*uint256.Int, error) {
	return loadOrZero(balances, t.tx, owner.Hex())
}

// Allowance returns what spender may still burn or move on owner's behalf.
func (t *Token) Allowance(owner, spender common.Address) (*uint256.Int, error) {
	return loadOrZero(allowances, t.tx, allowanceKey(owner, spender))
}

func (t *Token) spendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	current, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if current.Lt(amount) {
		return fmt.Errorf("%w: %s allowed %s to spend %s, needs %s", ErrInsufficientAllowance, owner.Hex(), spender.Hex(), current.Dec(), amount.Dec())
	}
	remaining := new(uint256.Int).Sub(current, amount)
	if remaining.IsZero() {
		return allowances.Remove(t.tx, allowanceKey(owner, spender))
	}
	return allowances.Save(t.tx, allowanceKey(owner, spender), remaining)
}

func (t *Token) credit(owner common.Address, amount *uint256.Int) error {
	current, err := t.Balance(owner)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("%w: balance overflow", ErrInvalidMessage)
	}
	return balances.Save(t.tx, owner.Hex(), updated)
}

func (t *Token) debit(owner common.Address, amount *uint256.Int) error {
	current, err := t.Balance(owner)
	if err != nil {
		return err
	}
	if current.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, owner.Hex(), current.Dec(), amount.Dec())
	}
	remaining := new(uint256.Int).Sub(current, amount)
	if remaining.IsZero() {
		return balances.Remove(t.tx, owner.Hex())
	}
	return balances.Save(t.tx, owner.Hex(), remaining)
}

func (t *Token) reduceSupply(amount *uint256.Int) error {
	ti, err := info.Load(t.tx)
	if err != nil {
		return err
	}
	ti.TotalSupply = new(uint256.Int).Sub(ti.TotalSupply, amount)
	return info.Save(t.tx, ti)
}

func nonZero(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidZeroAmount
	}
	return nil
}

func loadOrZero(m storage.Map[*uint256.Int], tx interfaces.KVTx, key string) (*uint256.Int, error) {
	v, err := m.Load(tx, key)
	if errors.Is(err, interfaces.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
