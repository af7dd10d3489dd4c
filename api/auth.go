package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Header constants used by signed requests.
const (
	// SenderHeader carries the hex identity the request claims to come from.
	SenderHeader = "X-Sender"

	// NonceHeader carries the sender's next request nonce in decimal.
	NonceHeader = "X-Nonce"

	// SignatureHeader carries a 65-byte secp256k1 signature, hex encoded, over
	// SigningHash of the request.
	SignatureHeader = "X-Signature"

	// MaxBodySize is the maximum accepted request body (1MB).
	MaxBodySize = 1024 * 1024
)

var (
	ErrMissingSignature = errors.New("missing signature headers")
	ErrInvalidSignature = errors.New("invalid request signature")
)

type senderKey struct{}

// SigningHash returns the digest a client signs:
// keccak256(method || path || uint64be(nonce) || body).
func SigningHash(method, path string, nonce uint64, body []byte) []byte {
	return crypto.Keccak256([]byte(method), []byte(path), binary.BigEndian.AppendUint64(nil, nonce), body)
}

// SignRequest creates a request whose sender is the address of key. nonce must
// be the sender's next nonce as reported by the server.
func SignRequest(ctx context.Context, method, reqURL string, nonce uint64, body []byte, key *ecdsa.PrivateKey) (*http.Request, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	signature, err := crypto.Sign(SigningHash(method, parsedURL.Path, nonce, body), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(SenderHeader, crypto.PubkeyToAddress(key.PublicKey).Hex())
	req.Header.Set(NonceHeader, strconv.FormatUint(nonce, 10))
	req.Header.Set(SignatureHeader, hexutil.Encode(signature))
	return req, nil
}

// VerifyRequest recovers the signer of r and checks it against the sender
// header. It returns the signer and the nonce it signed. The caller must
// consume the nonce; a valid signature alone does not prevent replay.
// The body is consumed and replaced so handlers can read it again.
func VerifyRequest(r *http.Request) (common.Address, uint64, error) {
	senderHex := r.Header.Get(SenderHeader)
	nonceStr := r.Header.Get(NonceHeader)
	signatureHex := r.Header.Get(SignatureHeader)
	if senderHex == "" || nonceStr == "" || signatureHex == "" {
		return common.Address{}, 0, ErrMissingSignature
	}
	if !common.IsHexAddress(senderHex) {
		return common.Address{}, 0, fmt.Errorf("%w: malformed sender", ErrInvalidSignature)
	}
	nonce, err := strconv.ParseUint(nonceStr, 10, 64)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("%w: malformed nonce", ErrInvalidSignature)
	}

	signature, err := hexutil.Decode(signatureHex)
	if err != nil || len(signature) != crypto.SignatureLength {
		return common.Address{}, 0, fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxBodySize))
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("failed to read body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	pubkey, err := crypto.SigToPub(SigningHash(r.Method, r.URL.Path, nonce, body), signature)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	signer := crypto.PubkeyToAddress(*pubkey)
	if signer != common.HexToAddress(senderHex) {
		return common.Address{}, 0, fmt.Errorf("%w: signed by %s", ErrInvalidSignature, signer.Hex())
	}
	return signer, nonce, nil
}

// WithSender stores the authenticated sender in ctx.
func WithSender(ctx context.Context, sender common.Address) context.Context {
	return context.WithValue(ctx, senderKey{}, sender)
}

// SenderFromContext returns the sender stored by WithSender.
func SenderFromContext(ctx context.Context) (common.Address, bool) {
	sender, ok := ctx.Value(senderKey{}).(common.Address)
	return sender, ok
}
