package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/api/vaulthandler"
	"github.com/ruteri/native-vault/cmd/flags"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/token"
	"github.com/urfave/cli/v2"
)

var flagDenom = &cli.StringFlag{
	Name:     "denom",
	Required: true,
	Usage:    "native denomination",
}

var flagAmount = &cli.StringFlag{
	Name:     "amount",
	Required: true,
	Usage:    "decimal amount",
}

var flagIssuer = &cli.StringFlag{
	Name:     "issuer",
	Required: true,
	Usage:    "receipt token address",
}

var flagOwner = &cli.StringFlag{
	Name:  "owner",
	Usage: "identity to query, defaults to the signer",
}

func main() {
	app := &cli.App{
		Name:  "vaultcli",
		Usage: "Sign and send requests to a native vault server",
		Flags: []cli.Flag{flags.ServerFlag, flags.PrivateKeyFlag},
		Commands: []*cli.Command{
			{
				Name:  "bond",
				Usage: "deposit native coins and receive receipt tokens",
				Flags: []cli.Flag{flagDenom, flagAmount},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					amount, err := parseAmount(cCtx)
					if err != nil {
						return err
					}
					return printJSON(c.Bond(cCtx.Context, interfaces.Coin{Denom: cCtx.String(flagDenom.Name), Amount: amount}))
				},
			},
			{
				Name:  "unbond",
				Usage: "burn receipt tokens and get native coins back (grant the vault an allowance first)",
				Flags: []cli.Flag{flagDenom, flagAmount},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					amount, err := parseAmount(cCtx)
					if err != nil {
						return err
					}
					return printJSON(c.Unbond(cCtx.Context, cCtx.String(flagDenom.Name), amount))
				},
			},
			{
				Name:  "add-vault",
				Usage: "register a receipt token issuer for a denomination",
				Flags: []cli.Flag{flagDenom, flagIssuer},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					issuer, err := interfaces.ParseIdentity(cCtx.String(flagIssuer.Name))
					if err != nil {
						return err
					}
					return printJSON(c.AddVault(cCtx.Context, cCtx.String(flagDenom.Name), issuer))
				},
			},
			{
				Name:  "replace-vault",
				Usage: "point a registered denomination at a new issuer",
				Flags: []cli.Flag{flagDenom, flagIssuer},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					issuer, err := interfaces.ParseIdentity(cCtx.String(flagIssuer.Name))
					if err != nil {
						return err
					}
					return printJSON(c.ReplaceVault(cCtx.Context, cCtx.String(flagDenom.Name), issuer))
				},
			},
			{
				Name:  "update-config",
				Usage: "hand the admin role to another identity",
				Flags: []cli.Flag{&cli.StringFlag{Name: "admin", Required: true}},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					admin, err := interfaces.ParseIdentity(cCtx.String("admin"))
					if err != nil {
						return err
					}
					return printJSON(c.UpdateConfig(cCtx.Context, admin))
				},
			},
			{
				Name:  "create-token",
				Usage: "instantiate a receipt token whose minter is the vault",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "symbol", Required: true},
					&cli.UintFlag{Name: "decimals", Value: 6},
					&cli.StringFlag{Name: "cap", Usage: "optional supply cap"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					vaultAddr, err := c.Vault(cCtx.Context)
					if err != nil {
						return err
					}

					minter := &token.MinterInfo{Minter: vaultAddr.Hex()}
					if s := cCtx.String("cap"); s != "" {
						minter.Cap, err = uint256.FromDecimal(s)
						if err != nil {
							return fmt.Errorf("invalid cap: %w", err)
						}
					}

					addr, err := c.CreateToken(cCtx.Context, token.InstantiateMsg{
						Name:     cCtx.String("name"),
						Symbol:   cCtx.String("symbol"),
						Decimals: uint8(cCtx.Uint("decimals")),
						Mint:     minter,
					}, cCtx.String("symbol"))
					if err != nil {
						return err
					}
					fmt.Println(addr.Hex())
					return nil
				},
			},
			{
				Name:  "allow",
				Usage: "let the vault burn receipt tokens on the signer's behalf",
				Flags: []cli.Flag{flagIssuer, flagAmount},
				Action: func(cCtx *cli.Context) error {
					c, err := signedClient(cCtx)
					if err != nil {
						return err
					}
					issuer, err := interfaces.ParseIdentity(cCtx.String(flagIssuer.Name))
					if err != nil {
						return err
					}
					amount, err := parseAmount(cCtx)
					if err != nil {
						return err
					}
					vaultAddr, err := c.Vault(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(c.IncreaseAllowance(cCtx.Context, issuer, vaultAddr, amount))
				},
			},
			{
				Name:  "balance",
				Usage: "receipt and native balance of an identity",
				Flags: []cli.Flag{flagDenom, flagOwner},
				Action: func(cCtx *cli.Context) error {
					c, owner, err := queryClient(cCtx)
					if err != nil {
						return err
					}
					denom := cCtx.String(flagDenom.Name)
					receipt, err := c.Balance(cCtx.Context, owner, denom)
					if err != nil {
						return err
					}
					native, err := c.NativeBalance(cCtx.Context, owner, denom)
					if err != nil {
						return err
					}
					return printJSON(map[string]string{
						"owner":   owner.Hex(),
						"denom":   denom,
						"receipt": receipt.Dec(),
						"native":  native.Dec(),
					}, nil)
				},
			},
			{
				Name:  "config",
				Usage: "show the vault config",
				Action: func(cCtx *cli.Context) error {
					c := vaulthandler.NewClient(cCtx.String(flags.ServerFlag.Name), nil)
					return printJSON(c.Config(cCtx.Context))
				},
			},
			{
				Name:  "denoms",
				Usage: "list registered denominations and their issuers",
				Action: func(cCtx *cli.Context) error {
					c := vaulthandler.NewClient(cCtx.String(flags.ServerFlag.Name), nil)
					denoms, err := c.Denoms(cCtx.Context)
					if err != nil {
						return err
					}
					for _, denom := range denoms {
						issuer, err := c.VaultAddress(cCtx.Context, denom)
						if err != nil {
							return err
						}
						fmt.Printf("%s\t%s\n", denom, issuer.Hex())
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func signedClient(cCtx *cli.Context) (*vaulthandler.Client, error) {
	key, err := flags.LoadPrivateKey(cCtx)
	if err != nil {
		return nil, err
	}
	return vaulthandler.NewClient(cCtx.String(flags.ServerFlag.Name), key), nil
}

// queryClient returns an unsigned client and the owner to query, defaulting to the signer.
func queryClient(cCtx *cli.Context) (*vaulthandler.Client, common.Address, error) {
	c := vaulthandler.NewClient(cCtx.String(flags.ServerFlag.Name), nil)
	if s := cCtx.String(flagOwner.Name); s != "" {
		owner, err := interfaces.ParseIdentity(s)
		return c, owner, err
	}
	signed, err := signedClient(cCtx)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("--owner or --private-key is required: %w", err)
	}
	return c, signed.Sender(), nil
}

func parseAmount(cCtx *cli.Context) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(cCtx.String(flagAmount.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return amount, nil
}

func printJSON(v any, err error) error {
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
