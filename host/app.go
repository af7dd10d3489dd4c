// Package host runs the vault, the native bank and receipt tokens inside one
// process. Every request executes in a single store transaction: either all
// of its state changes (vault registry, native balances, token balances)
// are committed, or none are.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/bank"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/metrics"
	"github.com/ruteri/native-vault/storage"
	"github.com/ruteri/native-vault/token"
	"github.com/ruteri/native-vault/vault"
)

var (
	// ErrUnknownContract is returned when an address is not a contract of the expected kind.
	ErrUnknownContract = errors.New("unknown contract")

	// ErrInvalidNonce is returned when a request carries a nonce other than the sender's next one.
	ErrInvalidNonce = errors.New("invalid request nonce")
)

const (
	KindToken = "token"
	KindVault = "vault"
)

// ContractInfo describes an instantiated contract.
type ContractInfo struct {
	Kind    string         `json:"kind"`
	Creator common.Address `json:"creator"`
	Label   string         `json:"label"`
}

var (
	contracts     = storage.NewMap[ContractInfo]("contracts")
	nonces        = storage.NewMap[uint64]("nonces")
	requestNonces = storage.NewMap[uint64]("request_nonces")
)

type requestNonceKey struct{}

// WithRequestNonce attaches the nonce a signed request carries. Mutating calls
// made with such a context succeed only if nonce is the sender's next request
// nonce, and consume it in the same transaction. In-process callers that pass
// no nonce are not checked.
func WithRequestNonce(ctx context.Context, nonce uint64) context.Context {
	return context.WithValue(ctx, requestNonceKey{}, nonce)
}

// App is the in-process host.
type App struct {
	store interfaces.KVStore
	vault *vault.Contract
	log   *slog.Logger
}

// NewApp creates a host over store. policy selects who may administer vaults.
func NewApp(store interfaces.KVStore, log *slog.Logger, policy vault.Policy) *App {
	return &App{
		store: store,
		vault: vault.New(log, policy),
		log:   log,
	}
}

// Fund mints native coins to addr. It is meant for genesis and tests.
func (a *App) Fund(ctx context.Context, addr common.Address, coins interfaces.Coins) error {
	return a.store.Update(ctx, func(tx interfaces.KVTx) error {
		return newTxContext(tx).bank().Mint(addr, coins)
	})
}

// InstantiateToken creates a receipt token and returns its address.
func (a *App) InstantiateToken(ctx context.Context, creator common.Address, msg token.InstantiateMsg, label string) (common.Address, error) {
	var addr common.Address
	err := a.store.Update(ctx, func(tx interfaces.KVTx) error {
		c := newTxContext(tx)
		if err := c.useRequestNonce(ctx, creator); err != nil {
			return err
		}
		var err error
		addr, err = c.createContract(creator, KindToken, label)
		if err != nil {
			return err
		}
		return token.New(c.contractStore(addr), addr).Instantiate(msg)
	})
	if err != nil {
		return common.Address{}, err
	}

	a.log.Info("Token instantiated", "address", addr.Hex(), "label", label, "creator", creator.Hex())
	return addr, nil
}

// InstantiateVault creates a vault and returns its address.
func (a *App) InstantiateVault(ctx context.Context, creator common.Address, msg vault.InstantiateMsg, label string) (common.Address, error) {
	var addr common.Address
	err := a.store.Update(ctx, func(tx interfaces.KVTx) error {
		var err error
		addr, err = a.instantiateVault(ctx, newTxContext(tx), creator, msg, label)
		return err
	})
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Genesis funds balances and instantiates the vault in one transaction, so a
// failed genesis leaves the store empty and can be retried.
func (a *App) Genesis(ctx context.Context, balances map[common.Address]interfaces.Coins, creator common.Address, msg vault.InstantiateMsg, label string) (common.Address, error) {
	accounts := slices.SortedFunc(maps.Keys(balances), common.Address.Cmp)

	var addr common.Address
	err := a.store.Update(ctx, func(tx interfaces.KVTx) error {
		c := newTxContext(tx)
		for _, account := range accounts {
			if err := c.bank().Mint(account, balances[account]); err != nil {
				return fmt.Errorf("genesis account %s: %w", account.Hex(), err)
			}
		}
		var err error
		addr, err = a.instantiateVault(ctx, c, creator, msg, label)
		return err
	})
	if err != nil {
		return common.Address{}, err
	}

	a.log.Info("Genesis committed", "accounts", len(accounts), "vault", addr.Hex())
	return addr, nil
}

func (a *App) instantiateVault(ctx context.Context, c *txContext, creator common.Address, msg vault.InstantiateMsg, label string) (common.Address, error) {
	addr, err := c.createContract(creator, KindVault, label)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := a.vault.Instantiate(ctx, c.vaultEnv(addr), vault.MessageInfo{Sender: creator}, msg); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// ExecuteVault runs msg against the vault at contract. Attached funds move
// from sender to the vault before the vault sees the request.
func (a *App) ExecuteVault(ctx context.Context, sender, contract common.Address, msg vault.ExecuteMsg, funds interfaces.Coins) (*interfaces.Response, error) {
	start := time.Now()

	var res *interfaces.Response
	err := a.store.Update(ctx, func(tx interfaces.KVTx) error {
		c := newTxContext(tx)
		if err := c.useRequestNonce(ctx, sender); err != nil {
			return err
		}
		if err := c.requireKind(contract, KindVault); err != nil {
			return err
		}
		if err := c.bank().Send(sender, contract, funds.NonZero()); err != nil {
			return fmt.Errorf("%w: attach funds: %w", vault.ErrPayment, err)
		}

		var err error
		res, err = a.vault.Execute(ctx, c.vaultEnv(contract), vault.MessageInfo{Sender: sender, Funds: funds}, msg)
		return err
	})
	metrics.RecordExecution(KindVault, msg.Action(), err, time.Since(start))
	if err != nil {
		a.log.Debug("Vault execution rolled back", "vault", contract.Hex(), "action", msg.Action(), "sender", sender.Hex(), "err", err)
		return nil, err
	}

	res.Contract = contract.Hex()
	return res, nil
}

// ExecuteToken runs msg against the token at contract on behalf of sender.
func (a *App) ExecuteToken(ctx context.Context, sender, contract common.Address, msg token.ExecuteMsg) (*interfaces.Response, error) {
	start := time.Now()

	var res *interfaces.Response
	err := a.store.Update(ctx, func(tx interfaces.KVTx) error {
		c := newTxContext(tx)
		if err := c.useRequestNonce(ctx, sender); err != nil {
			return err
		}
		tok, err := c.token(contract)
		if err != nil {
			return err
		}
		res, err = tok.Execute(sender, msg)
		return err
	})
	metrics.RecordExecution(KindToken, msg.Action(), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	res.Contract = contract.Hex()
	return res, nil
}

// QueryVault answers a read-only vault query with its JSON response.
func (a *App) QueryVault(ctx context.Context, contract common.Address, msg vault.QueryMsg) ([]byte, error) {
	var res []byte
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		c := newTxContext(tx)
		if err := c.requireKind(contract, KindVault); err != nil {
			return err
		}
		var err error
		res, err = a.vault.Query(ctx, c.vaultEnv(contract), msg)
		return err
	})
	return res, err
}

// QueryToken answers a read-only token query.
func (a *App) QueryToken(ctx context.Context, contract common.Address, msg token.QueryMsg) (any, error) {
	var res any
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		tok, err := newTxContext(tx).token(contract)
		if err != nil {
			return err
		}
		res, err = tok.Query(msg)
		return err
	})
	return res, err
}

// NativeBalance returns addr's native balance in denom.
func (a *App) NativeBalance(ctx context.Context, addr common.Address, denom string) (*uint256.Int, error) {
	var res *uint256.Int
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		var err error
		res, err = newTxContext(tx).bank().Balance(addr, denom)
		return err
	})
	return res, err
}

// NativeBalances returns all of addr's native balances.
func (a *App) NativeBalances(ctx context.Context, addr common.Address) (interfaces.Coins, error) {
	var res interfaces.Coins
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		var err error
		res, err = newTxContext(tx).bank().AllBalances(addr)
		return err
	})
	return res, err
}

// RequestNonce returns the nonce the next signed request from addr must carry.
func (a *App) RequestNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var res uint64
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		var err error
		res, err = newTxContext(tx).requestNonce(addr)
		return err
	})
	return res, err
}

// Contract returns what is deployed at addr.
func (a *App) Contract(ctx context.Context, addr common.Address) (ContractInfo, error) {
	var info ContractInfo
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		var err error
		info, err = newTxContext(tx).contractInfo(addr)
		return err
	})
	return info, err
}

// ContractsOfKind lists the addresses of every contract of kind, ordered by address.
func (a *App) ContractsOfKind(ctx context.Context, kind string) ([]common.Address, error) {
	var res []common.Address
	err := a.store.View(ctx, func(tx interfaces.KVTx) error {
		return contracts.Range(storage.Prefix(tx, "host"), func(key string, info ContractInfo) error {
			if info.Kind == kind {
				res = append(res, common.HexToAddress(key))
			}
			return nil
		})
	})
	return res, err
}

// txContext wires components to one transaction.
type txContext struct {
	tx interfaces.KVTx
}

func newTxContext(tx interfaces.KVTx) *txContext {
	return &txContext{tx: tx}
}

func (c *txContext) hostStore() interfaces.KVTx {
	return storage.Prefix(c.tx, "host")
}

func (c *txContext) bank() *bank.Bank {
	return bank.New(storage.Prefix(c.tx, "bank"))
}

func (c *txContext) contractStore(addr common.Address) interfaces.KVTx {
	return storage.Prefix(c.tx, "contract/"+addr.Hex())
}

// createContract derives the next address for creator the way EVM CREATE does.
func (c *txContext) createContract(creator common.Address, kind, label string) (common.Address, error) {
	hs := c.hostStore()
	nonce, err := nonces.Load(hs, creator.Hex())
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return common.Address{}, err
	}

	addr := crypto.CreateAddress(creator, nonce)
	if err := nonces.Save(hs, creator.Hex(), nonce+1); err != nil {
		return common.Address{}, err
	}
	if err := contracts.Save(hs, addr.Hex(), ContractInfo{Kind: kind, Creator: creator, Label: label}); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (c *txContext) requestNonce(sender common.Address) (uint64, error) {
	nonce, err := requestNonces.Load(c.hostStore(), sender.Hex())
	if errors.Is(err, interfaces.ErrNotFound) {
		return 0, nil
	}
	return nonce, err
}

// useRequestNonce consumes the nonce carried by ctx, if any, for sender.
func (c *txContext) useRequestNonce(ctx context.Context, sender common.Address) error {
	got, ok := ctx.Value(requestNonceKey{}).(uint64)
	if !ok {
		return nil
	}
	want, err := c.requestNonce(sender)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrInvalidNonce, got, want)
	}
	return requestNonces.Save(c.hostStore(), sender.Hex(), want+1)
}

func (c *txContext) contractInfo(addr common.Address) (ContractInfo, error) {
	info, err := contracts.Load(c.hostStore(), addr.Hex())
	if errors.Is(err, interfaces.ErrNotFound) {
		return ContractInfo{}, fmt.Errorf("%w: %s", ErrUnknownContract, addr.Hex())
	}
	return info, err
}

func (c *txContext) requireKind(addr common.Address, kind string) error {
	info, err := c.contractInfo(addr)
	if err != nil {
		return err
	}
	if info.Kind != kind {
		return fmt.Errorf("%w: %s is a %s, not a %s", ErrUnknownContract, addr.Hex(), info.Kind, kind)
	}
	return nil
}

func (c *txContext) token(addr common.Address) (*token.Token, error) {
	if err := c.requireKind(addr, KindToken); err != nil {
		return nil, err
	}
	return token.New(c.contractStore(addr), addr), nil
}

func (c *txContext) vaultEnv(addr common.Address) vault.Env {
	return vault.Env{
		Store:   c.contractStore(addr),
		Self:    addr,
		Issuers: &issuerFactory{c: c, sender: addr},
		Bank:    &bankAccount{c: c, sender: addr},
	}
}
