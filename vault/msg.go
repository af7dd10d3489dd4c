package vault

import (
	"github.com/holiman/uint256"
)

// InstantiateMsg initializes the vault. Admin defaults to the instantiating sender.
type InstantiateMsg struct {
	Admin *string `json:"admin,omitempty"`
}

// ExecuteMsg is a tagged union of the mutating operations: exactly one field must be set.
type ExecuteMsg struct {
	Bond         *BondMsg         `json:"bond,omitempty"`
	Unbond       *UnbondMsg       `json:"unbond,omitempty"`
	AddVault     *AddVaultMsg     `json:"add_vault,omitempty"`
	ReplaceVault *AddVaultMsg     `json:"replace_vault,omitempty"`
	UpdateConfig *UpdateConfigMsg `json:"update_config,omitempty"`
}

// BondMsg deposits the single attached coin. Denom and Amount, when set, must match it.
type BondMsg struct {
	Denom  string       `json:"denom,omitempty"`
	Amount *uint256.Int `json:"amount,omitempty"`
}

// UnbondMsg redeems receipt tokens for native value.
type UnbondMsg struct {
	Denom  string       `json:"denom"`
	Amount *uint256.Int `json:"amount"`
}

// AddVaultMsg links a denomination to a receipt-token issuer.
type AddVaultMsg struct {
	Denom   string `json:"denom"`
	Address string `json:"address"`
}

// UpdateConfigMsg changes the config. Absent fields are left unchanged.
type UpdateConfigMsg struct {
	Admin *string `json:"admin,omitempty"`
}

// QueryMsg is a tagged union of the read-only operations: exactly one field must be set.
type QueryMsg struct {
	Balance      *BalanceQuery      `json:"balance,omitempty"`
	Config       *struct{}          `json:"config,omitempty"`
	VaultAddress *VaultAddressQuery `json:"vault_address,omitempty"`
	DenomList    *struct{}          `json:"denom_list,omitempty"`
}

// BalanceQuery asks for owner's receipt balance in denom.
type BalanceQuery struct {
	Owner string `json:"owner"`
	Denom string `json:"denom"`
}

// VaultAddressQuery asks for the issuer registered for denom.
type VaultAddressQuery struct {
	Denom string `json:"denom"`
}

// BalanceResponse is the owner's receipt-token balance as reported by the issuer.
type BalanceResponse struct {
	Balance *uint256.Int `json:"balance"`
}

// ConfigResponse reports the current admin.
type ConfigResponse struct {
	Admin string `json:"admin"`
}

// VaultAddressResponse is the issuer address registered for a denomination.
type VaultAddressResponse struct {
	Address string `json:"address"`
}

// DenomResponse lists registered denominations in ascending order.
type DenomResponse struct {
	Denoms []string `json:"denoms"`
}

// Action returns the name of the operation carried by msg, or "" if none.
func (msg ExecuteMsg) Action() string {
	switch {
	case msg.Bond != nil:
		return "bond"
	case msg.Unbond != nil:
		return "unbond"
	case msg.AddVault != nil:
		return "add_vault"
	case msg.ReplaceVault != nil:
		return "replace_vault"
	case msg.UpdateConfig != nil:
		return "update_config"
	default:
		return ""
	}
}

func (msg ExecuteMsg) count() int {
	n := 0
	for _, set := range []bool{msg.Bond != nil, msg.Unbond != nil, msg.AddVault != nil, msg.ReplaceVault != nil, msg.UpdateConfig != nil} {
		if set {
			n++
		}
	}
	return n
}

func (msg QueryMsg) count() int {
	n := 0
	for _, set := range []bool{msg.Balance != nil, msg.Config != nil, msg.VaultAddress != nil, msg.DenomList != nil} {
		if set {
			n++
		}
	}
	return n
}
