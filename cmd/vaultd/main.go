package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/native-vault/api/vaulthandler"
	"github.com/ruteri/native-vault/cmd/flags"
	"github.com/ruteri/native-vault/host"
	"github.com/ruteri/native-vault/httpserver"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/storage"
	"github.com/ruteri/native-vault/vault"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.StoreFlag,
	flags.AdminFlag,
	flags.OperatorsFlag,
	flags.GenesisFlag,
	flags.LogServiceFlagFn("vaultd"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "vaultd",
		Usage: "Serve a native vault that bonds native coins into receipt tokens",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			store, err := storage.NewStoreFromURI(logger, cCtx.String(flags.StoreFlag.Name))
			if err != nil {
				logger.Error("Failed to open store", "err", err)
				return err
			}
			defer store.Close()

			operators, err := flags.ParseIdentities(cCtx.StringSlice(flags.OperatorsFlag.Name))
			if err != nil {
				logger.Error("Invalid operators", "err", err)
				return err
			}

			var policy vault.Policy
			if len(operators) > 0 {
				logger.Info("Vault management restricted to operators", "count", len(operators))
				policy = vault.AnyOf(operators...)
			}

			vaultApp := host.NewApp(store, logger, policy)
			vaultAddr, err := bootstrap(cCtx, logger, vaultApp)
			if err != nil {
				logger.Error("Failed to bootstrap vault", "err", err)
				return err
			}

			handler := vaulthandler.NewHandler(vaultApp, vaultAddr, logger)
			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "vault", vaultAddr.Hex())
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap returns the existing vault, or on an empty store applies the
// genesis file and instantiates a new vault administered by --admin.
func bootstrap(cCtx *cli.Context, logger *slog.Logger, app *host.App) (common.Address, error) {
	ctx := context.Background()

	vaults, err := app.ContractsOfKind(ctx, host.KindVault)
	if err != nil {
		return common.Address{}, err
	}
	if len(vaults) > 0 {
		if len(vaults) > 1 {
			logger.Warn("Store holds several vaults, serving the first", "count", len(vaults))
		}
		logger.Info("Resuming existing vault", "vault", vaults[0].Hex())
		return vaults[0], nil
	}

	adminHex := cCtx.String(flags.AdminFlag.Name)
	if adminHex == "" {
		return common.Address{}, errors.New("--admin is required to instantiate a new vault")
	}
	admin, err := interfaces.ParseIdentity(adminHex)
	if err != nil {
		return common.Address{}, err
	}

	var genesis *Genesis
	if path := cCtx.String(flags.GenesisFlag.Name); path != "" {
		if genesis, err = loadGenesis(path); err != nil {
			return common.Address{}, err
		}
	}

	vaultAddr, err := genesis.apply(ctx, app, admin)
	if err != nil {
		return common.Address{}, err
	}
	if genesis != nil {
		logger.Info("Genesis applied", "accounts", len(genesis.Balances))
	}
	logger.Info("Vault instantiated", "vault", vaultAddr.Hex(), "admin", admin.Hex())
	return vaultAddr, nil
}
