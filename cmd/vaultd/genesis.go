package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/native-vault/bank"
	"github.com/ruteri/native-vault/host"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/vault"
)

// Genesis lists the native balances funded when the store is first created.
type Genesis struct {
	Balances map[string]interfaces.Coins `json:"balances"`
}

func loadGenesis(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseGenesis(f)
}

func parseGenesis(r io.Reader) (*Genesis, error) {
	var g Genesis
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	return &g, nil
}

// accounts validates every entry and returns the balances keyed by identity.
func (g *Genesis) accounts() (map[common.Address]interfaces.Coins, error) {
	res := make(map[common.Address]interfaces.Coins, len(g.Balances))
	for owner, coins := range g.Balances {
		addr, err := interfaces.ParseIdentity(owner)
		if err != nil {
			return nil, fmt.Errorf("genesis account %q: %w", owner, err)
		}
		if err := bank.ValidateCoins(coins); err != nil {
			return nil, fmt.Errorf("genesis account %s: %w", addr.Hex(), err)
		}
		res[addr] = append(res[addr], coins...)
	}
	return res, nil
}

// apply funds every genesis account and instantiates the vault administered
// by admin. Nothing is written unless all of it succeeds.
func (g *Genesis) apply(ctx context.Context, app *host.App, admin common.Address) (common.Address, error) {
	var balances map[common.Address]interfaces.Coins
	if g != nil {
		var err error
		if balances, err = g.accounts(); err != nil {
			return common.Address{}, err
		}
	}

	adminHex := admin.Hex()
	return app.Genesis(ctx, balances, admin, vault.InstantiateMsg{Admin: &adminHex}, "native vault")
}
