/*
Package vault implements the native vault: it bonds native coins into
receipt tokens and redeems them back.

For every supported denomination the vault keeps the address of one receipt
token issuer. Bonding a coin mints the same amount of receipt tokens to the
sender while the coin stays with the vault as collateral. Unbonding burns
receipt tokens from the sender, using an allowance the sender granted the
vault on the issuer, and pays the same amount of the native coin back.

# Components

  - Config and the authorization Policy (AdminOnly by default, AnyOf for an operator list)
  - Registry: AddVault, ReplaceVault, UpdateConfig, GetIssuer, ListDenominations
  - Ledger: Bond, Unbond
  - Queries: QueryConfig, QueryVaultAddress, QueryDenomList, QueryBalance

Execute and Query dispatch the JSON tagged-union messages to these operations.

# Registration probe

Before an issuer is recorded, the vault mints one unit to itself and burns
it again. Both calls must succeed, proving the vault holds minter rights.
The registry entry is written only after the probe, so a failed probe never
leaves an entry behind.

# Atomicity

The vault does not roll anything back itself. The host runs each request in
a single store transaction shared by the vault's own state, the native bank
and the issuers; any error returned here discards all of it, including the
probe and any funds attached to the request.

# Collaborators

The vault reaches the outside world only through Env:

  - interfaces.IssuerFactory resolves issuer addresses into TokenIssuer capabilities acting as the vault
  - interfaces.NativeBank pays native coins out of the vault

Both are interfaces so tests can substitute testify mocks.
*/
package vault
