/*
Package vaulthandler serves a native vault over HTTP and provides the matching client.

Signed endpoints (see package api for the signature scheme):

	POST /api/vault/execute               {"msg": {...}, "funds": [{"denom": "ucosm", "amount": "100"}]}
	POST /api/tokens                      {"msg": {"name": ..., "mint": {"minter": "0x..."}}, "label": ...}
	POST /api/tokens/{address}/execute    {"msg": {"increase_allowance": {...}}}

Unsigned queries:

	GET /api/vault
	GET /api/vault/config
	GET /api/vault/denoms
	GET /api/vault/denoms/{denom}
	GET /api/vault/balance/{owner}/{denom}
	GET /api/tokens/{address}/balance/{owner}
	GET /api/tokens/{address}/allowance/{owner}/{spender}
	GET /api/bank/{address}
	GET /api/bank/{address}/{denom}
	GET /api/nonce/{address}

Path parameters are percent-decoded, so a denomination such as "ibc/27394FB"
is requested as ibc%2F27394FB.

Vault messages are JSON tagged unions with exactly one key set:

	{"bond": {"denom": "ucosm", "amount": "100"}}
	{"unbond": {"denom": "ucosm", "amount": "40"}}
	{"add_vault": {"denom": "ucosm", "address": "0x..."}}
	{"replace_vault": {"denom": "ucosm", "address": "0x..."}}
	{"update_config": {"admin": "0x..."}}

Errors come back as {"error": "..."} with the status chosen by StatusFor.
*/
package vaulthandler
