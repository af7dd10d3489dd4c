package vaulthandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/native-vault/api"
	"github.com/ruteri/native-vault/bank"
	"github.com/ruteri/native-vault/host"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/token"
	"github.com/ruteri/native-vault/vault"
)

// RequestIDHeader is echoed on every response and attached to request logs.
const RequestIDHeader = "X-Request-ID"

// Handler serves one vault and the token and bank helpers around it.
type Handler struct {
	app   *host.App
	vault common.Address
	log   *slog.Logger
}

// NewHandler creates a handler for the vault at vaultAddr hosted by app.
func NewHandler(app *host.App, vaultAddr common.Address, log *slog.Logger) *Handler {
	return &Handler{
		app:   app,
		vault: vaultAddr,
		log:   log,
	}
}

// RegisterRoutes configures the HTTP router with the vault endpoints:
//   - GET  /api/vault - Address of the served vault
//   - POST /api/vault/execute - Signed vault execution (bond, unbond, add_vault, ...)
//   - GET  /api/vault/config - Current admin
//   - GET  /api/vault/denoms - Registered denominations
//   - GET  /api/vault/denoms/{denom} - Issuer registered for a denomination
//   - GET  /api/vault/balance/{owner}/{denom} - Receipt balance through the vault
//   - POST /api/tokens - Signed receipt token instantiation
//   - POST /api/tokens/{address}/execute - Signed token execution
//   - GET  /api/tokens/{address}/balance/{owner} - Token balance
//   - GET  /api/tokens/{address}/allowance/{owner}/{spender} - Token allowance
//   - GET  /api/bank/{address} - Native balances
//   - GET  /api/bank/{address}/{denom} - Native balance in one denomination
//   - GET  /api/nonce/{address} - Nonce the next signed request from address must carry
//
// Path parameters may be percent-encoded, so denominations such as "ibc/27394FB"
// are addressable as "ibc%2F27394FB".
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requestID)

		r.Get("/api/vault", h.HandleVaultInfo)
		r.Get("/api/vault/config", h.HandleConfig)
		r.Get("/api/vault/denoms", h.HandleDenoms)
		r.Get("/api/vault/denoms/{denom}", h.HandleVaultAddress)
		r.Get("/api/vault/balance/{owner}/{denom}", h.HandleBalance)
		r.Get("/api/tokens/{address}/balance/{owner}", h.HandleTokenBalance)
		r.Get("/api/tokens/{address}/allowance/{owner}/{spender}", h.HandleTokenAllowance)
		r.Get("/api/bank/{address}", h.HandleNativeBalances)
		r.Get("/api/bank/{address}/{denom}", h.HandleNativeBalance)
		r.Get("/api/nonce/{address}", h.HandleNonce)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSignature)
			r.Post("/api/vault/execute", h.HandleExecute)
			r.Post("/api/tokens", h.HandleCreateToken)
			r.Post("/api/tokens/{address}/execute", h.HandleTokenExecute)
		})
	})
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requireSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sender, nonce, err := api.VerifyRequest(r)
		if err != nil {
			h.log.Warn("Rejected unsigned request", "err", err, "path", r.URL.Path, "requestID", w.Header().Get(RequestIDHeader))
			if !errors.Is(err, api.ErrMissingSignature) && !errors.Is(err, api.ErrInvalidSignature) {
				err = &requestError{status: http.StatusBadRequest, err: err}
			}
			h.writeError(w, r, err)
			return
		}
		ctx := host.WithRequestNonce(api.WithSender(r.Context(), sender), nonce)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleVaultInfo returns the address of the served vault.
func (h *Handler) HandleVaultInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.VaultInfoResponse{Address: h.vault.Hex()})
}

// HandleExecute runs a signed vault message. Any failure rolls back the whole
// request, including the attached funds.
//
// Status codes:
//   - 200 OK: executed, body is the action record
//   - 400 Bad Request: malformed body, payment error or invalid identity
//   - 401 Unauthorized: missing or invalid signature, or a stale nonce
//   - 403 Forbidden: the signer may not perform the operation
//   - 404 Not Found: no issuer registered for the denomination
//   - 409 Conflict: the denomination is already registered
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	sender, _ := api.SenderFromContext(r.Context())

	var req api.VaultExecuteRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.app.ExecuteVault(r.Context(), sender, h.vault, req.Msg, req.Funds)
	if err != nil {
		h.log.Info("Vault execution failed", "err", err, "action", req.Msg.Action(), "sender", sender.Hex())
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, res)
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, vault.QueryMsg{Config: &struct{}{}})
}

func (h *Handler) HandleDenoms(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, vault.QueryMsg{DenomList: &struct{}{}})
}

func (h *Handler) HandleVaultAddress(w http.ResponseWriter, r *http.Request) {
	denom, ok := h.pathParam(w, r, "denom")
	if !ok {
		return
	}
	h.query(w, r, vault.QueryMsg{VaultAddress: &vault.VaultAddressQuery{Denom: denom}})
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.pathParam(w, r, "owner")
	if !ok {
		return
	}
	denom, ok := h.pathParam(w, r, "denom")
	if !ok {
		return
	}
	h.query(w, r, vault.QueryMsg{Balance: &vault.BalanceQuery{Owner: owner, Denom: denom}})
}

// HandleCreateToken instantiates a receipt token with the signer as creator.
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	sender, _ := api.SenderFromContext(r.Context())

	var req api.CreateTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	addr, err := h.app.InstantiateToken(r.Context(), sender, req.Msg, req.Label)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, api.CreateTokenResponse{Address: addr.Hex()})
}

func (h *Handler) HandleTokenExecute(w http.ResponseWriter, r *http.Request) {
	sender, _ := api.SenderFromContext(r.Context())
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}

	var req api.TokenExecuteRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.app.ExecuteToken(r.Context(), sender, addr, req.Msg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, res)
}

func (h *Handler) HandleTokenBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	owner, ok := h.pathParam(w, r, "owner")
	if !ok {
		return
	}
	res, err := h.app.QueryToken(r.Context(), addr, token.QueryMsg{Balance: &token.BalanceQuery{Address: owner}})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, res)
}

func (h *Handler) HandleTokenAllowance(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	owner, ok := h.pathParam(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := h.pathParam(w, r, "spender")
	if !ok {
		return
	}
	res, err := h.app.QueryToken(r.Context(), addr, token.QueryMsg{Allowance: &token.AllowanceQuery{
		Owner:   owner,
		Spender: spender,
	}})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, res)
}

func (h *Handler) HandleNativeBalances(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	balances, err := h.app.NativeBalances(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, api.NativeBalancesResponse{Address: addr.Hex(), Balances: balances})
}

func (h *Handler) HandleNativeBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	denom, ok := h.pathParam(w, r, "denom")
	if !ok {
		return
	}
	amount, err := h.app.NativeBalance(r.Context(), addr, denom)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, api.NativeBalanceResponse{Address: addr.Hex(), Denom: denom, Amount: amount})
}

func (h *Handler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	nonce, err := h.app.RequestNonce(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, api.NonceResponse{Address: addr.Hex(), Nonce: nonce})
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request, msg vault.QueryMsg) {
	raw, err := h.app.QueryVault(r.Context(), h.vault, msg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// pathParam returns the decoded path parameter name. The router matches on
// the raw path when the request escapes a reserved character, and then the
// value still carries its escapes.
func (h *Handler) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if r.URL.RawPath == "" {
		return v, true
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		h.writeError(w, r, &requestError{status: http.StatusBadRequest, err: fmt.Errorf("path parameter %s: %w", name, err)})
		return "", false
	}
	return decoded, true
}

func (h *Handler) pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	v, ok := h.pathParam(w, r, name)
	if !ok {
		return common.Address{}, false
	}
	addr, err := interfaces.ParseIdentity(v)
	if err != nil {
		h.writeError(w, r, err)
		return common.Address{}, false
	}
	return addr, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, api.MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, &requestError{status: http.StatusBadRequest, err: err})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err, "path", r.URL.Path, "requestID", w.Header().Get(RequestIDHeader))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Error()})
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// StatusFor maps an execution error to its HTTP status.
func StatusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, api.ErrMissingSignature),
		errors.Is(err, api.ErrInvalidSignature),
		errors.Is(err, host.ErrInvalidNonce):
		return http.StatusUnauthorized
	case errors.Is(err, vault.ErrUnauthorized), errors.Is(err, token.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrVaultDoesNotExist), errors.Is(err, host.ErrUnknownContract):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrVaultAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, vault.ErrPayment),
		errors.Is(err, vault.ErrInvalidDenomination),
		errors.Is(err, vault.ErrInvalidMessage),
		errors.Is(err, interfaces.ErrInvalidIdentity),
		errors.Is(err, bank.ErrInsufficientFunds),
		errors.Is(err, bank.ErrInvalidCoins),
		errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrInvalidZeroAmount),
		errors.Is(err, token.ErrCapExceeded),
		errors.Is(err, token.ErrInvalidMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
