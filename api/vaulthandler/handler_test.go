package vaulthandler

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/api"
	"github.com/ruteri/native-vault/host"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/storage"
	"github.com/ruteri/native-vault/token"
	"github.com/ruteri/native-vault/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv   *httptest.Server
	app   *host.App
	vault common.Address
	admin *ecdsa.PrivateKey
	rob   *ecdsa.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	adminKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	robKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	app := host.NewApp(storage.NewMemoryStore(), logger, nil)
	adminHex := crypto.PubkeyToAddress(adminKey.PublicKey).Hex()
	vaultAddr, err := app.InstantiateVault(ctx, crypto.PubkeyToAddress(adminKey.PublicKey), vault.InstantiateMsg{Admin: &adminHex}, "vault")
	require.NoError(t, err)

	rob := crypto.PubkeyToAddress(robKey.PublicKey)
	require.NoError(t, app.Fund(ctx, rob, interfaces.Coins{interfaces.NewCoin("ucosm", 1000)}))

	mux := chi.NewRouter()
	NewHandler(app, vaultAddr, logger).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, app: app, vault: vaultAddr, admin: adminKey, rob: robKey}
}

func (s *testServer) client(key *ecdsa.PrivateKey) *Client {
	return NewClient(s.srv.URL, key)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "expected a StatusError, got %v", err)
	return statusErr.StatusCode
}

func TestBondUnbondOverHTTP(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	admin := s.client(s.admin)
	rob := s.client(s.rob)

	vaultAddr, err := rob.Vault(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.vault, vaultAddr)

	issuer, err := admin.CreateToken(ctx, token.InstantiateMsg{
		Name:     "Bonded Cosm",
		Symbol:   "BCOSM",
		Decimals: 6,
		Mint:     &token.MinterInfo{Minter: vaultAddr.Hex()},
	}, "bcosm")
	require.NoError(t, err)

	res, err := admin.AddVault(ctx, "ucosm", issuer)
	require.NoError(t, err)
	assert.Equal(t, "add_vault", res.Action())

	registered, err := rob.VaultAddress(ctx, "ucosm")
	require.NoError(t, err)
	assert.Equal(t, issuer, registered)

	_, err = rob.Bond(ctx, interfaces.NewCoin("ucosm", 100))
	require.NoError(t, err)

	balance, err := rob.Balance(ctx, rob.Sender(), "ucosm")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance.Uint64())

	_, err = rob.IncreaseAllowance(ctx, issuer, vaultAddr, uint256.NewInt(40))
	require.NoError(t, err)
	_, err = rob.Unbond(ctx, "ucosm", uint256.NewInt(40))
	require.NoError(t, err)

	balance, err = rob.TokenBalance(ctx, issuer, rob.Sender())
	require.NoError(t, err)
	assert.Equal(t, uint64(60), balance.Uint64())

	native, err := rob.NativeBalance(ctx, rob.Sender(), "ucosm")
	require.NoError(t, err)
	assert.Equal(t, uint64(940), native.Uint64())

	all, err := rob.NativeBalances(ctx, vaultAddr)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ucosm", all[0].Denom)
	assert.Equal(t, uint64(60), all[0].Amount.Uint64())
}

func TestErrorStatuses(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	admin := s.client(s.admin)
	rob := s.client(s.rob)

	issuer, err := admin.CreateToken(ctx, token.InstantiateMsg{
		Name:   "Bonded Cosm",
		Symbol: "BCOSM",
		Mint:   &token.MinterInfo{Minter: s.vault.Hex()},
	}, "")
	require.NoError(t, err)

	_, err = rob.AddVault(ctx, "ucosm", issuer)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = rob.Bond(ctx, interfaces.NewCoin("ucosm", 10))
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = admin.AddVault(ctx, "ucosm", issuer)
	require.NoError(t, err)
	_, err = admin.AddVault(ctx, "ucosm", issuer)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = rob.Execute(ctx, vault.ExecuteMsg{Bond: &vault.BondMsg{}}, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = rob.Unbond(ctx, "ucosm", uint256.NewInt(1))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = rob.VaultAddress(ctx, "uusd")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	// Failed requests leave Rob's native balance untouched.
	native, err := rob.NativeBalance(ctx, rob.Sender(), "ucosm")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), native.Uint64())
}

func TestSignatureRequired(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	body := []byte(`{"msg":{"update_config":{}}}`)
	executeURL := s.srv.URL + "/api/vault/execute"

	resp, err := http.Post(executeURL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	// A signature by Rob claiming to be the admin.
	req, err := api.SignRequest(ctx, http.MethodPost, executeURL, 0, body, s.rob)
	require.NoError(t, err)
	req.Header.Set(api.SenderHeader, crypto.PubkeyToAddress(s.admin.PublicKey).Hex())
	assert.Equal(t, http.StatusUnauthorized, do(t, req))

	// A valid signature over a different body.
	req, err = api.SignRequest(ctx, http.MethodPost, executeURL, 0, body, s.admin)
	require.NoError(t, err)
	req.Body = io.NopCloser(bytes.NewReader([]byte(`{"msg":{"update_config":{"admin":"0x0000000000000000000000000000000000000002"}}}`)))
	req.ContentLength = -1
	assert.Equal(t, http.StatusUnauthorized, do(t, req))

	// A valid signature with the nonce header altered.
	req, err = api.SignRequest(ctx, http.MethodPost, executeURL, 0, body, s.admin)
	require.NoError(t, err)
	req.Header.Set(api.NonceHeader, "1")
	assert.Equal(t, http.StatusUnauthorized, do(t, req))

	// No nonce at all.
	req, err = api.SignRequest(ctx, http.MethodPost, executeURL, 0, body, s.admin)
	require.NoError(t, err)
	req.Header.Del(api.NonceHeader)
	assert.Equal(t, http.StatusUnauthorized, do(t, req))

	// The admin's own signature goes through.
	req, err = api.SignRequest(ctx, http.MethodPost, executeURL, 0, body, s.admin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(t, req))
}

func TestSignedRequestsExecuteOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	admin := s.client(s.admin)
	rob := s.client(s.rob)
	eve := common.HexToAddress("0x00000000000000000000000000000000000000ee")

	issuer, err := admin.CreateToken(ctx, token.InstantiateMsg{
		Name:   "Bonded Cosm",
		Symbol: "BCOSM",
		Mint:   &token.MinterInfo{Minter: s.vault.Hex()},
	}, "bcosm")
	require.NoError(t, err)
	_, err = admin.AddVault(ctx, "ucosm", issuer)
	require.NoError(t, err)
	_, err = rob.Bond(ctx, interfaces.NewCoin("ucosm", 100))
	require.NoError(t, err)

	nonce, err := rob.Nonce(ctx, rob.Sender())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	body, err := json.Marshal(api.TokenExecuteRequest{Msg: token.ExecuteMsg{
		Transfer: &token.TransferMsg{Recipient: eve.Hex(), Amount: uint256.NewInt(10)},
	}})
	require.NoError(t, err)
	transferURL := s.srv.URL + "/api/tokens/" + issuer.Hex() + "/execute"
	signed, err := api.SignRequest(ctx, http.MethodPost, transferURL, nonce, body, s.rob)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(t, resend(t, signed, body)))
	for range 3 {
		assert.Equal(t, http.StatusUnauthorized, do(t, resend(t, signed, body)))
	}

	balance, err := rob.TokenBalance(ctx, issuer, eve)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance.Uint64())

	// A nonce ahead of the ledger is rejected too.
	ahead, err := api.SignRequest(ctx, http.MethodPost, transferURL, nonce+5, body, s.rob)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(t, ahead))

	// A failed request does not consume the nonce.
	_, err = rob.AddVault(ctx, "uusd", issuer)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	after, err := rob.Nonce(ctx, rob.Sender())
	require.NoError(t, err)
	assert.Equal(t, nonce+1, after)
}

func TestDenominationWithSlash(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	admin := s.client(s.admin)
	rob := s.client(s.rob)
	const denom = "ibc/27394FB"

	require.NoError(t, s.app.Fund(ctx, rob.Sender(), interfaces.Coins{interfaces.NewCoin(denom, 500)}))

	issuer, err := admin.CreateToken(ctx, token.InstantiateMsg{
		Name:   "Bonded Atom",
		Symbol: "BATOM",
		Mint:   &token.MinterInfo{Minter: s.vault.Hex()},
	}, "batom")
	require.NoError(t, err)
	_, err = admin.AddVault(ctx, denom, issuer)
	require.NoError(t, err)

	registered, err := rob.VaultAddress(ctx, denom)
	require.NoError(t, err)
	assert.Equal(t, issuer, registered)

	_, err = rob.Bond(ctx, interfaces.NewCoin(denom, 70))
	require.NoError(t, err)

	balance, err := rob.Balance(ctx, rob.Sender(), denom)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), balance.Uint64())

	native, err := rob.NativeBalance(ctx, rob.Sender(), denom)
	require.NoError(t, err)
	assert.Equal(t, uint64(430), native.Uint64())

	denoms, err := rob.Denoms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{denom}, denoms)
}

func do(t *testing.T, req *http.Request) int {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

// resend builds a fresh request carrying the same body and headers as signed.
func resend(t *testing.T, signed *http.Request, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(signed.Method, signed.URL.String(), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header = signed.Header.Clone()
	return req
}

func TestQueriesWithRecorder(t *testing.T) {
	s := newTestServer(t)
	mux := chi.NewRouter()
	NewHandler(s.app, s.vault, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/api/vault/config", http.StatusOK, crypto.PubkeyToAddress(s.admin.PublicKey).Hex()},
		{"/api/vault/denoms", http.StatusOK, `{"denoms":[]}`},
		{"/api/vault/denoms/ucosm", http.StatusNotFound, "ucosm"},
		{"/api/vault/balance/not-an-address/ucosm", http.StatusBadRequest, "invalid identity"},
		{"/api/vault/balance/" + s.vault.Hex() + "/ucosm", http.StatusNotFound, "ucosm"},
		{"/api/bank/not-an-address", http.StatusBadRequest, "invalid identity"},
		{"/api/tokens/" + s.vault.Hex() + "/balance/" + s.vault.Hex(), http.StatusNotFound, "unknown contract"},
		{"/api/vault/denoms/ibc%2F27394FB", http.StatusNotFound, "vault does not exist: ibc/27394FB"},
		{"/api/nonce/" + s.vault.Hex(), http.StatusOK, `"nonce":0`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}
