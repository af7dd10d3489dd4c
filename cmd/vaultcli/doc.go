// Package main (cmd/vaultcli) is the command line client for vaultd.
//
// Requests are signed with --private-key (or VAULT_PRIVATE_KEY). A typical
// session registering a denomination and bonding into it:
//
//	vaultcli --private-key $ADMIN create-token --name "Bonded Cosm" --symbol BCOSM
//	vaultcli --private-key $ADMIN add-vault --denom ucosm --issuer 0x...
//	vaultcli --private-key $ROB bond --denom ucosm --amount 100
//	vaultcli --private-key $ROB allow --issuer 0x... --amount 40
//	vaultcli --private-key $ROB unbond --denom ucosm --amount 40
//	vaultcli --private-key $ROB balance --denom ucosm
package main
