package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/native-vault/interfaces"
)

// Env is what the host hands the vault for one request.
type Env struct {
	// Store is the vault's own namespace inside the request transaction.
	Store interfaces.KVTx

	// Self is the vault's own identity. Native collateral is held here.
	Self common.Address

	// Issuers resolves issuer addresses into capabilities acting as Self.
	Issuers interfaces.IssuerFactory

	// Bank moves native value out of Self.
	Bank interfaces.NativeBank
}

// MessageInfo identifies the caller and the native value attached to the request.
// The host has already moved Funds into Self when Execute runs.
type MessageInfo struct {
	Sender common.Address
	Funds  interfaces.Coins
}

// Contract is the native vault: an admin-managed registry of receipt-token
// issuers per denomination, and the bond/unbond ledger on top of it.
//
// Contract holds no per-request state. Atomicity is the host's job: if any
// method returns an error, every write and issuer call made during the
// request must be discarded together.
type Contract struct {
	policy Policy
	log    *slog.Logger
}

// New creates the vault contract. A nil policy means AdminOnly.
func New(log *slog.Logger, policy Policy) *Contract {
	if policy == nil {
		policy = AdminOnly
	}
	return &Contract{policy: policy, log: log}
}

// Instantiate stores the initial config.
func (c *Contract) Instantiate(ctx context.Context, env Env, info MessageInfo, msg InstantiateMsg) (*interfaces.Response, error) {
	admin := info.Sender
	if msg.Admin != nil {
		parsed, err := interfaces.ParseIdentity(*msg.Admin)
		if err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
		admin = parsed
	}

	if err := config.Save(env.Store, Config{Admin: admin}); err != nil {
		return nil, err
	}

	c.log.Info("Vault instantiated", "vault", env.Self.Hex(), "admin", admin.Hex())
	return interfaces.NewResponse("instantiate").
		AddAttribute("admin", admin.Hex()), nil
}

// Execute dispatches a mutating request.
func (c *Contract) Execute(ctx context.Context, env Env, info MessageInfo, msg ExecuteMsg) (*interfaces.Response, error) {
	if msg.count() != 1 {
		return nil, fmt.Errorf("%w: expected exactly one operation, got %d", ErrInvalidMessage, msg.count())
	}

	switch {
	case msg.Bond != nil:
		return c.Bond(ctx, env, info, msg.Bond.Denom, msg.Bond.Amount)
	case msg.Unbond != nil:
		return c.Unbond(ctx, env, info, msg.Unbond.Denom, msg.Unbond.Amount)
	case msg.AddVault != nil:
		return c.AddVault(ctx, env, info, msg.AddVault.Denom, msg.AddVault.Address)
	case msg.ReplaceVault != nil:
		return c.ReplaceVault(ctx, env, info, msg.ReplaceVault.Denom, msg.ReplaceVault.Address)
	default:
		return c.UpdateConfig(ctx, env, info, msg.UpdateConfig.Admin)
	}
}

// Query dispatches a read-only request and returns the JSON-encoded response.
func (c *Contract) Query(ctx context.Context, env Env, msg QueryMsg) ([]byte, error) {
	if msg.count() != 1 {
		return nil, fmt.Errorf("%w: expected exactly one query, got %d", ErrInvalidMessage, msg.count())
	}

	var (
		res any
		err error
	)
	switch {
	case msg.Balance != nil:
		var owner common.Address
		owner, err = interfaces.ParseIdentity(msg.Balance.Owner)
		if err != nil {
			return nil, err
		}
		res, err = c.QueryBalance(ctx, env, owner, msg.Balance.Denom)
	case msg.Config != nil:
		res, err = c.QueryConfig(env.Store)
	case msg.VaultAddress != nil:
		res, err = c.QueryVaultAddress(env.Store, msg.VaultAddress.Denom)
	default:
		res, err = c.QueryDenomList(env.Store)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func nonpayable(info MessageInfo) error {
	if len(info.Funds.NonZero()) > 0 {
		return fmt.Errorf("%w: this operation does not accept funds, got %s", ErrPayment, info.Funds)
	}
	return nil
}
