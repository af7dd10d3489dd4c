package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/native-vault/storage"
)

// Config is the vault's singleton configuration.
type Config struct {
	// Admin may register issuers and update the config.
	Admin common.Address `json:"admin"`
}

var (
	config = storage.NewItem[Config]("config")

	// vaultAddresses links a native denomination to its receipt-token issuer.
	vaultAddresses = storage.NewMap[common.Address]("vault_addresses")
)
