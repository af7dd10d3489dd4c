package api

import (
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/token"
	"github.com/ruteri/native-vault/vault"
)

// VaultInfoResponse identifies the vault served by this process.
type VaultInfoResponse struct {
	Address string `json:"address"`
}

// VaultExecuteRequest is the body of a signed vault execution.
// Funds are moved from the signer to the vault before the message runs.
type VaultExecuteRequest struct {
	Msg   vault.ExecuteMsg `json:"msg"`
	Funds interfaces.Coins `json:"funds,omitempty"`
}

// CreateTokenRequest instantiates a receipt token owned by the signer.
type CreateTokenRequest struct {
	Msg   token.InstantiateMsg `json:"msg"`
	Label string               `json:"label,omitempty"`
}

type CreateTokenResponse struct {
	Address string `json:"address"`
}

// TokenExecuteRequest is the body of a signed token execution.
type TokenExecuteRequest struct {
	Msg token.ExecuteMsg `json:"msg"`
}

// NativeBalanceResponse is one native balance.
type NativeBalanceResponse struct {
	Address string       `json:"address"`
	Denom   string       `json:"denom"`
	Amount  *uint256.Int `json:"amount"`
}

// NativeBalancesResponse lists every non-zero native balance of an address.
type NativeBalancesResponse struct {
	Address  string           `json:"address"`
	Balances interfaces.Coins `json:"balances"`
}

// NonceResponse is the nonce the next signed request from Address must carry.
type NonceResponse struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
