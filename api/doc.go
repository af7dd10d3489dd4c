/*
Package api holds the HTTP surface shared by the vault server and its clients.

It defines the request and response bodies, the server configuration and the
request signing scheme. The routes themselves live in the vaulthandler
subpackage.

# Authentication

Mutating requests are signed by the caller's secp256k1 key. The client sends

  - X-Sender: the caller's hex address
  - X-Nonce: the caller's next request nonce, from GET /api/nonce/{address}
  - X-Signature: hex of a 65-byte recoverable signature over
    keccak256(method || path || uint64be(nonce) || body)

The server recovers the public key from the signature and accepts the request
only when it derives to X-Sender. The recovered address becomes the sender the
vault authorizes against. The nonce is checked and incremented in the same
transaction as the operation, so a signed request executes at most once; a
request that fails leaves the nonce unchanged. Read-only queries are unsigned.
*/
package api
