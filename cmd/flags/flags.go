package flags

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ruteri/native-vault/api"
	vaultcommon "github.com/ruteri/native-vault/common"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := vaultcommon.SetupLogger(&vaultcommon.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: vaultcommon.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *api.HTTPServerConfig {
	listenAddr := cCtx.String(ListenAddrFlag.Name)
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ParseIdentities parses a list of hex identities, accepting comma separated values.
func ParseIdentities(values []string) ([]common.Address, error) {
	var res []common.Address
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			addr, err := interfaces.ParseIdentity(part)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", part, err)
			}
			res = append(res, addr)
		}
	}
	return res, nil
}

// LoadPrivateKey reads the signing key from the private-key flag.
func LoadPrivateKey(cCtx *cli.Context) (*ecdsa.PrivateKey, error) {
	keyHex := strings.TrimPrefix(cCtx.String(PrivateKeyFlag.Name), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("--%s is required", PrivateKeyFlag.Name)
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var StoreFlag = &cli.StringFlag{
	Name:    "store",
	Value:   "memory://",
	Usage:   "state store location: memory:// or bolt:///path/to/state.db",
	EnvVars: []string{"VAULT_STORE"},
}

var AdminFlag = &cli.StringFlag{
	Name:  "admin",
	Usage: "vault admin identity set at instantiation (defaults to the genesis creator)",
}

var OperatorsFlag = &cli.StringSliceFlag{
	Name:  "operators",
	Usage: "identities allowed to manage vaults instead of the admin",
}

var GenesisFlag = &cli.StringFlag{
	Name:  "genesis",
	Usage: "JSON file with native balances to fund when the store is empty",
}

var ServerFlag = &cli.StringFlag{
	Name:    "server",
	Value:   "http://127.0.0.1:8080",
	Usage:   "vault server to connect to",
	EnvVars: []string{"VAULT_SERVER"},
}

var PrivateKeyFlag = &cli.StringFlag{
	Name:    "private-key",
	Usage:   "hex secp256k1 key to sign requests with",
	EnvVars: []string{"VAULT_PRIVATE_KEY"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
