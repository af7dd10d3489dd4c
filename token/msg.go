package token

import (
	"github.com/holiman/uint256"
)

// MinterInfo names the identity allowed to mint, with an optional supply cap.
type MinterInfo struct {
	Minter string       `json:"minter"`
	Cap    *uint256.Int `json:"cap,omitempty"`
}

// InstantiateMsg configures a new receipt token.
type InstantiateMsg struct {
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	Decimals        uint8            `json:"decimals"`
	InitialBalances []InitialBalance `json:"initial_balances,omitempty"`
	Mint            *MinterInfo      `json:"mint,omitempty"`
}

// InitialBalance seeds a balance at instantiation.
type InitialBalance struct {
	Address string       `json:"address"`
	Amount  *uint256.Int `json:"amount"`
}

// ExecuteMsg is a tagged union: exactly one field must be set.
type ExecuteMsg struct {
	Transfer          *TransferMsg  `json:"transfer,omitempty"`
	Burn              *BurnMsg      `json:"burn,omitempty"`
	BurnFrom          *BurnFromMsg  `json:"burn_from,omitempty"`
	Mint              *MintMsg      `json:"mint,omitempty"`
	IncreaseAllowance *AllowanceMsg `json:"increase_allowance,omitempty"`
	DecreaseAllowance *AllowanceMsg `json:"decrease_allowance,omitempty"`
}

type TransferMsg struct {
	Recipient string       `json:"recipient"`
	Amount    *uint256.Int `json:"amount"`
}

type BurnMsg struct {
	Amount *uint256.Int `json:"amount"`
}

type BurnFromMsg struct {
	Owner  string       `json:"owner"`
	Amount *uint256.Int `json:"amount"`
}

type MintMsg struct {
	Recipient string       `json:"recipient"`
	Amount    *uint256.Int `json:"amount"`
}

type AllowanceMsg struct {
	Spender string       `json:"spender"`
	Amount  *uint256.Int `json:"amount"`
}

// QueryMsg is a tagged union: exactly one field must be set.
type QueryMsg struct {
	Balance   *BalanceQuery   `json:"balance,omitempty"`
	Allowance *AllowanceQuery `json:"allowance,omitempty"`
	TokenInfo *struct{}       `json:"token_info,omitempty"`
	Minter    *struct{}       `json:"minter,omitempty"`
}

type BalanceQuery struct {
	Address string `json:"address"`
}

type AllowanceQuery struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type BalanceResponse struct {
	Balance *uint256.Int `json:"balance"`
}

type AllowanceResponse struct {
	Allowance *uint256.Int `json:"allowance"`
}

type TokenInfoResponse struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Decimals    uint8        `json:"decimals"`
	TotalSupply *uint256.Int `json:"total_supply"`
}

type MinterResponse struct {
	Minter string       `json:"minter"`
	Cap    *uint256.Int `json:"cap,omitempty"`
}

// Action returns the name of the operation carried by msg, or "" if none.
func (msg ExecuteMsg) Action() string {
	switch {
	case msg.Transfer != nil:
		return "transfer"
	case msg.Burn != nil:
		return "burn"
	case msg.BurnFrom != nil:
		return "burn_from"
	case msg.Mint != nil:
		return "mint"
	case msg.IncreaseAllowance != nil:
		return "increase_allowance"
	case msg.DecreaseAllowance != nil:
		return "decrease_allowance"
	default:
		return ""
	}
}
