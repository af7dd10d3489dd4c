package vaulthandler

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/api"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/token"
	"github.com/ruteri/native-vault/vault"
)

// StatusError is returned by Client when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with code %d: %s", e.StatusCode, e.Message)
}

// Client talks to a vault server. Mutating calls are signed with key.
type Client struct {
	baseURL    string
	key        *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL (e.g. "http://localhost:8080").
// key may be nil for a read-only client.
func NewClient(baseURL string, key *ecdsa.PrivateKey) *Client {
	return &Client{
		baseURL:    baseURL,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Sender returns the identity the client signs as.
func (c *Client) Sender() common.Address {
	if c.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.key.PublicKey)
}

// Vault returns the address of the served vault.
func (c *Client) Vault(ctx context.Context) (common.Address, error) {
	var res api.VaultInfoResponse
	if err := c.get(ctx, "/api/vault", &res); err != nil {
		return common.Address{}, err
	}
	return interfaces.ParseIdentity(res.Address)
}

// Execute sends a vault message with funds attached.
func (c *Client) Execute(ctx context.Context, msg vault.ExecuteMsg, funds interfaces.Coins) (*interfaces.Response, error) {
	var res interfaces.Response
	if err := c.post(ctx, "/api/vault/execute", api.VaultExecuteRequest{Msg: msg, Funds: funds}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Bond deposits coin and receives the same amount of receipt tokens.
func (c *Client) Bond(ctx context.Context, coin interfaces.Coin) (*interfaces.Response, error) {
	return c.Execute(ctx, vault.ExecuteMsg{Bond: &vault.BondMsg{Denom: coin.Denom, Amount: coin.Amount}}, interfaces.Coins{coin})
}

// Unbond burns receipt tokens and returns the native coin. The vault must
// hold an allowance on the issuer for amount.
func (c *Client) Unbond(ctx context.Context, denom string, amount *uint256.Int) (*interfaces.Response, error) {
	return c.Execute(ctx, vault.ExecuteMsg{Unbond: &vault.UnbondMsg{Denom: denom, Amount: amount}}, nil)
}

func (c *Client) AddVault(ctx context.Context, denom string, issuer common.Address) (*interfaces.Response, error) {
	return c.Execute(ctx, vault.ExecuteMsg{AddVault: &vault.AddVaultMsg{Denom: denom, Address: issuer.Hex()}}, nil)
}

func (c *Client) ReplaceVault(ctx context.Context, denom string, issuer common.Address) (*interfaces.Response, error) {
	return c.Execute(ctx, vault.ExecuteMsg{ReplaceVault: &vault.AddVaultMsg{Denom: denom, Address: issuer.Hex()}}, nil)
}

// UpdateConfig hands the admin role to admin.
func (c *Client) UpdateConfig(ctx context.Context, admin common.Address) (*interfaces.Response, error) {
	hex := admin.Hex()
	return c.Execute(ctx, vault.ExecuteMsg{UpdateConfig: &vault.UpdateConfigMsg{Admin: &hex}}, nil)
}

func (c *Client) Config(ctx context.Context) (vault.ConfigResponse, error) {
	var res vault.ConfigResponse
	err := c.get(ctx, "/api/vault/config", &res)
	return res, err
}

func (c *Client) Denoms(ctx context.Context) ([]string, error) {
	var res vault.DenomResponse
	err := c.get(ctx, "/api/vault/denoms", &res)
	return res.Denoms, err
}

func (c *Client) VaultAddress(ctx context.Context, denom string) (common.Address, error) {
	var res vault.VaultAddressResponse
	if err := c.get(ctx, "/api/vault/denoms/"+url.PathEscape(denom), &res); err != nil {
		return common.Address{}, err
	}
	return interfaces.ParseIdentity(res.Address)
}

// Balance returns owner's receipt balance for denom as reported by its issuer.
func (c *Client) Balance(ctx context.Context, owner common.Address, denom string) (*uint256.Int, error) {
	var res vault.BalanceResponse
	if err := c.get(ctx, fmt.Sprintf("/api/vault/balance/%s/%s", owner.Hex(), url.PathEscape(denom)), &res); err != nil {
		return nil, err
	}
	return res.Balance, nil
}

// Nonce returns the nonce the next signed request from addr must carry.
func (c *Client) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	var res api.NonceResponse
	if err := c.get(ctx, "/api/nonce/"+addr.Hex(), &res); err != nil {
		return 0, err
	}
	return res.Nonce, nil
}

// CreateToken instantiates a receipt token and returns its address.
func (c *Client) CreateToken(ctx context.Context, msg token.InstantiateMsg, label string) (common.Address, error) {
	var res api.CreateTokenResponse
	if err := c.post(ctx, "/api/tokens", api.CreateTokenRequest{Msg: msg, Label: label}, &res); err != nil {
		return common.Address{}, err
	}
	return interfaces.ParseIdentity(res.Address)
}

func (c *Client) ExecuteToken(ctx context.Context, tokenAddr common.Address, msg token.ExecuteMsg) (*interfaces.Response, error) {
	var res interfaces.Response
	if err := c.post(ctx, fmt.Sprintf("/api/tokens/%s/execute", tokenAddr.Hex()), api.TokenExecuteRequest{Msg: msg}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// IncreaseAllowance lets spender burn amount of the caller's tokens.
func (c *Client) IncreaseAllowance(ctx context.Context, tokenAddr, spender common.Address, amount *uint256.Int) (*interfaces.Response, error) {
	return c.ExecuteToken(ctx, tokenAddr, token.ExecuteMsg{
		IncreaseAllowance: &token.AllowanceMsg{Spender: spender.Hex(), Amount: amount},
	})
}

func (c *Client) TokenBalance(ctx context.Context, tokenAddr, owner common.Address) (*uint256.Int, error) {
	var res token.BalanceResponse
	if err := c.get(ctx, fmt.Sprintf("/api/tokens/%s/balance/%s", tokenAddr.Hex(), owner.Hex()), &res); err != nil {
		return nil, err
	}
	return res.Balance, nil
}

func (c *Client) NativeBalance(ctx context.Context, owner common.Address, denom string) (*uint256.Int, error) {
	var res api.NativeBalanceResponse
	if err := c.get(ctx, fmt.Sprintf("/api/bank/%s/%s", owner.Hex(), url.PathEscape(denom)), &res); err != nil {
		return nil, err
	}
	return res.Amount, nil
}

func (c *Client) NativeBalances(ctx context.Context, owner common.Address) (interfaces.Coins, error) {
	var res api.NativeBalancesResponse
	if err := c.get(ctx, "/api/bank/"+owner.Hex(), &res); err != nil {
		return nil, err
	}
	return res.Balances, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.key == nil {
		return fmt.Errorf("%w: client has no signing key", api.ErrMissingSignature)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	nonce, err := c.Nonce(ctx, c.Sender())
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}
	req, err := api.SignRequest(ctx, http.MethodPost, c.baseURL+path, nonce, raw, c.key)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if json.Unmarshal(body, &errResp) != nil || errResp.Error == "" {
			errResp.Error = string(bytes.TrimSpace(body))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
