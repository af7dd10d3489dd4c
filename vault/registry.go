package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
)

// probeAmount is minted to and burned from the vault when an issuer is registered.
var probeAmount = uint256.NewInt(1)

// AddVault registers issuer address for denom. It fails with ErrVaultAlreadyExists
// if denom is taken. The vault must hold minting rights on the issuer.
func (c *Contract) AddVault(ctx context.Context, env Env, info MessageInfo, denom, address string) (*interfaces.Response, error) {
	issuer, err := c.prepareRegistration(ctx, env, info, denom, address)
	if err != nil {
		return nil, err
	}

	exists, err := vaultAddresses.Has(env.Store, denom)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrVaultAlreadyExists, denom)
	}

	return c.register(ctx, env, info, "add_vault", denom, issuer)
}

// ReplaceVault points an already registered denom at a new issuer, under the
// same authorization and capability check as AddVault.
func (c *Contract) ReplaceVault(ctx context.Context, env Env, info MessageInfo, denom, address string) (*interfaces.Response, error) {
	issuer, err := c.prepareRegistration(ctx, env, info, denom, address)
	if err != nil {
		return nil, err
	}

	if _, err := c.GetIssuer(env.Store, denom); err != nil {
		return nil, err
	}

	return c.register(ctx, env, info, "replace_vault", denom, issuer)
}

func (c *Contract) prepareRegistration(ctx context.Context, env Env, info MessageInfo, denom, address string) (common.Address, error) {
	cfg, err := config.Load(env.Store)
	if err != nil {
		return common.Address{}, err
	}
	if err := RequireAuthorized(c.policy, info.Sender, cfg); err != nil {
		return common.Address{}, err
	}
	if err := nonpayable(info); err != nil {
		return common.Address{}, err
	}
	if strings.TrimSpace(denom) == "" {
		return common.Address{}, fmt.Errorf("%w: denomination is empty", ErrInvalidDenomination)
	}
	return interfaces.ParseIdentity(address)
}

// register probes the issuer and, only once both probe calls succeeded, writes the entry.
func (c *Contract) register(ctx context.Context, env Env, info MessageInfo, action, denom string, address common.Address) (*interfaces.Response, error) {
	if err := c.probeMinter(ctx, env, address); err != nil {
		return nil, err
	}

	if err := vaultAddresses.Save(env.Store, denom, address); err != nil {
		return nil, err
	}

	c.log.Info("Vault registered",
		"action", action,
		"denom", denom,
		"issuer", address.Hex(),
		"sender", info.Sender.Hex())

	return interfaces.NewResponse(action).
		AddAttribute("denom", denom).
		AddAttribute("address", address.Hex()), nil
}

// probeMinter mints one unit to the vault and burns it again, proving the
// vault holds minter rights on the issuer before anything trusts it.
func (c *Contract) probeMinter(ctx context.Context, env Env, address common.Address) error {
	issuer, err := env.Issuers.IssuerFor(address)
	if err != nil {
		return fmt.Errorf("resolve issuer %s: %w", address.Hex(), err)
	}

	if err := issuer.Mint(ctx, env.Self, probeAmount); err != nil {
		return fmt.Errorf("minter probe on %s: mint: %w", address.Hex(), err)
	}
	if err := issuer.Burn(ctx, probeAmount); err != nil {
		return fmt.Errorf("minter probe on %s: burn: %w", address.Hex(), err)
	}

	c.log.Debug("Issuer minter probe succeeded", "issuer", address.Hex())
	return nil
}

// UpdateConfig replaces the admin if one is given. Absent fields are left unchanged.
func (c *Contract) UpdateConfig(ctx context.Context, env Env, info MessageInfo, admin *string) (*interfaces.Response, error) {
	cfg, err := config.Load(env.Store)
	if err != nil {
		return nil, err
	}
	if err := RequireAuthorized(c.policy, info.Sender, cfg); err != nil {
		return nil, err
	}
	if err := nonpayable(info); err != nil {
		return nil, err
	}

	if admin != nil {
		newAdmin, err := interfaces.ParseIdentity(*admin)
		if err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
		cfg.Admin = newAdmin
	}

	if err := config.Save(env.Store, cfg); err != nil {
		return nil, err
	}

	c.log.Info("Vault config updated", "admin", cfg.Admin.Hex(), "sender", info.Sender.Hex())
	return interfaces.NewResponse("update_config").
		AddAttribute("admin", cfg.Admin.Hex()), nil
}

// GetIssuer returns the issuer registered for denom or ErrVaultDoesNotExist.
func (c *Contract) GetIssuer(tx interfaces.KVTx, denom string) (common.Address, error) {
	addr, err := vaultAddresses.Load(tx, denom)
	if errors.Is(err, interfaces.ErrNotFound) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrVaultDoesNotExist, denom)
	}
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// ListDenominations returns every registered denomination in ascending order.
func (c *Contract) ListDenominations(tx interfaces.KVTx) ([]string, error) {
	return vaultAddresses.Keys(tx)
}
