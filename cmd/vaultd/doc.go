// Package main (cmd/vaultd) serves a native vault over HTTP.
//
// On an empty store the server funds the accounts listed in --genesis and
// instantiates a new vault administered by --admin. On later starts it
// resumes the vault already in the store. When --operators is given, vault
// management is restricted to that list instead of the admin.
//
// Example usage:
//
//	vaultd --store bolt:///var/lib/vault/state.db \
//	  --admin 0x1111111111111111111111111111111111111111 \
//	  --genesis genesis.json --listen-addr 0.0.0.0:8080
//
// Genesis file format:
//
//	{"balances": {"0x2222...": [{"denom": "ucosm", "amount": "1000"}]}}
package main
