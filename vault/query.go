package vault

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/native-vault/interfaces"
)

// QueryConfig returns the current config.
func (c *Contract) QueryConfig(tx interfaces.KVTx) (ConfigResponse, error) {
	cfg, err := config.Load(tx)
	if err != nil {
		return ConfigResponse{}, err
	}
	return ConfigResponse{Admin: cfg.Admin.Hex()}, nil
}

// QueryVaultAddress returns the issuer registered for denom.
func (c *Contract) QueryVaultAddress(tx interfaces.KVTx, denom string) (VaultAddressResponse, error) {
	addr, err := c.GetIssuer(tx, denom)
	if err != nil {
		return VaultAddressResponse{}, err
	}
	return VaultAddressResponse{Address: addr.Hex()}, nil
}

// QueryDenomList returns all registered denominations in ascending order.
func (c *Contract) QueryDenomList(tx interfaces.KVTx) (DenomResponse, error) {
	denoms, err := c.ListDenominations(tx)
	if err != nil {
		return DenomResponse{}, err
	}
	return DenomResponse{Denoms: denoms}, nil
}

// QueryBalance forwards a balance query to denom's issuer and returns its answer as is.
func (c *Contract) QueryBalance(ctx context.Context, env Env, owner common.Address, denom string) (BalanceResponse, error) {
	issuerAddr, err := c.GetIssuer(env.Store, denom)
	if err != nil {
		return BalanceResponse{}, err
	}
	issuer, err := env.Issuers.IssuerFor(issuerAddr)
	if err != nil {
		return BalanceResponse{}, err
	}
	balance, err := issuer.Balance(ctx, owner)
	if err != nil {
		return BalanceResponse{}, err
	}
	return BalanceResponse{Balance: balance}, nil
}
