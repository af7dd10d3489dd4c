package vault

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/ruteri/native-vault/storage"
	"github.com/ruteri/native-vault/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	vaultAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	adminAddr  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	robAddr    = common.HexToAddress("0x0000000000000000000000000000000000000002")
	issuerAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

// mockBank mocks the interfaces.NativeBank interface
type mockBank struct {
	mock.Mock
}

func (m *mockBank) Send(ctx context.Context, recipient common.Address, coins interfaces.Coins) error {
	args := m.Called(ctx, recipient, coins)
	return args.Error(0)
}

func (m *mockBank) Balance(ctx context.Context, owner common.Address, denom string) (*uint256.Int, error) {
	args := m.Called(ctx, owner, denom)
	return args.Get(0).(*uint256.Int), args.Error(1)
}

type fixture struct {
	store    *storage.MemoryStore
	contract *Contract
	issuers  *token.MockIssuerFactory
	issuer   *token.MockIssuer
	bank     *mockBank
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	f := &fixture{
		store:    storage.NewMemoryStore(),
		contract: New(slog.New(slog.NewTextHandler(io.Discard, nil)), policy),
		issuers:  &token.MockIssuerFactory{},
		issuer:   &token.MockIssuer{},
		bank:     &mockBank{},
	}

	admin := adminAddr.Hex()
	err := f.run(func(env Env) error {
		_, err := f.contract.Instantiate(context.Background(), env, MessageInfo{Sender: robAddr}, InstantiateMsg{Admin: &admin})
		return err
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) env(tx interfaces.KVTx) Env {
	return Env{Store: tx, Self: vaultAddr, Issuers: f.issuers, Bank: f.bank}
}

// run executes fn in one transaction, which is discarded if fn fails.
func (f *fixture) run(fn func(env Env) error) error {
	return f.store.Update(context.Background(), func(tx interfaces.KVTx) error {
		return fn(f.env(tx))
	})
}

func (f *fixture) execute(sender common.Address, funds interfaces.Coins, msg ExecuteMsg) (*interfaces.Response, error) {
	var res *interfaces.Response
	err := f.run(func(env Env) error {
		var err error
		res, err = f.contract.Execute(context.Background(), env, MessageInfo{Sender: sender, Funds: funds}, msg)
		return err
	})
	return res, err
}

func (f *fixture) query(t *testing.T, msg QueryMsg, out any) error {
	t.Helper()
	return f.store.View(context.Background(), func(tx interfaces.KVTx) error {
		raw, err := f.contract.Query(context.Background(), f.env(tx), msg)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	})
}

// expectProbe makes issuerAddr a well-behaved minter.
func (f *fixture) expectProbe() {
	f.issuers.On("IssuerFor", issuerAddr).Return(f.issuer, nil)
	f.issuer.On("Mint", mock.Anything, vaultAddr, uint256.NewInt(1)).Return(nil).Once()
	f.issuer.On("Burn", mock.Anything, uint256.NewInt(1)).Return(nil).Once()
}

func (f *fixture) addVault(t *testing.T, denom string) {
	t.Helper()
	f.expectProbe()
	_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: denom, Address: issuerAddr.Hex()}})
	require.NoError(t, err)
}

func TestPolicies(t *testing.T) {
	cfg := Config{Admin: adminAddr}

	assert.NoError(t, RequireAdmin(adminAddr, cfg))
	assert.ErrorIs(t, RequireAdmin(robAddr, cfg), ErrUnauthorized)

	operators := AnyOf(robAddr, vaultAddr)
	assert.True(t, operators.IsAuthorized(robAddr, cfg))
	assert.True(t, operators.IsAuthorized(vaultAddr, cfg))
	assert.False(t, operators.IsAuthorized(adminAddr, cfg))
	assert.ErrorIs(t, RequireAuthorized(operators, adminAddr, cfg), ErrUnauthorized)
}

func TestInstantiate_DefaultsAdminToSender(t *testing.T) {
	f := &fixture{
		store:    storage.NewMemoryStore(),
		contract: New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil),
	}
	require.NoError(t, f.run(func(env Env) error {
		_, err := f.contract.Instantiate(context.Background(), env, MessageInfo{Sender: robAddr}, InstantiateMsg{})
		return err
	}))

	var cfg ConfigResponse
	require.NoError(t, f.query(t, QueryMsg{Config: &struct{}{}}, &cfg))
	assert.Equal(t, robAddr.Hex(), cfg.Admin)
}

func TestAddVault(t *testing.T) {
	t.Run("non-admin is rejected before any issuer call", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(robAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrUnauthorized)
		f.issuers.AssertNotCalled(t, "IssuerFor", mock.Anything)
	})

	t.Run("admin registers after mint and burn probe", func(t *testing.T) {
		f := newFixture(t, nil)
		f.expectProbe()

		res, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		require.NoError(t, err)
		assert.Equal(t, "add_vault", res.Action())
		f.issuer.AssertExpectations(t)

		var addr VaultAddressResponse
		require.NoError(t, f.query(t, QueryMsg{VaultAddress: &VaultAddressQuery{Denom: "ucosm"}}, &addr))
		assert.Equal(t, issuerAddr.Hex(), addr.Address)

		var denoms DenomResponse
		require.NoError(t, f.query(t, QueryMsg{DenomList: &struct{}{}}, &denoms))
		assert.Equal(t, []string{"ucosm"}, denoms.Denoms)
	})

	t.Run("failed mint probe leaves no entry", func(t *testing.T) {
		f := newFixture(t, nil)
		notMinter := errors.New("token: unauthorized")
		f.issuers.On("IssuerFor", issuerAddr).Return(f.issuer, nil)
		f.issuer.On("Mint", mock.Anything, vaultAddr, uint256.NewInt(1)).Return(notMinter)

		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, notMinter)
		f.issuer.AssertNotCalled(t, "Burn", mock.Anything, mock.Anything)

		var addr VaultAddressResponse
		err = f.query(t, QueryMsg{VaultAddress: &VaultAddressQuery{Denom: "ucosm"}}, &addr)
		assert.ErrorIs(t, err, ErrVaultDoesNotExist)
	})

	t.Run("failed burn probe leaves no entry", func(t *testing.T) {
		f := newFixture(t, nil)
		burnErr := errors.New("burn rejected")
		f.issuers.On("IssuerFor", issuerAddr).Return(f.issuer, nil)
		f.issuer.On("Mint", mock.Anything, vaultAddr, uint256.NewInt(1)).Return(nil)
		f.issuer.On("Burn", mock.Anything, uint256.NewInt(1)).Return(burnErr)

		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, burnErr)

		var denoms DenomResponse
		require.NoError(t, f.query(t, QueryMsg{DenomList: &struct{}{}}, &denoms))
		assert.Empty(t, denoms.Denoms)
	})

	t.Run("malformed issuer address", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: "not-an-address"}})
		assert.ErrorIs(t, err, interfaces.ErrInvalidIdentity)
	})

	t.Run("empty denomination", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: " ", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrInvalidDenomination)
	})

	t.Run("funds are refused", func(t *testing.T) {
		f := newFixture(t, nil)
		funds := interfaces.Coins{interfaces.NewCoin("ucosm", 5)}
		_, err := f.execute(adminAddr, funds, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrPayment)
	})

	t.Run("existing denomination fails, replace overwrites", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")

		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrVaultAlreadyExists)

		other := common.HexToAddress("0x00000000000000000000000000000000000000c2")
		otherIssuer := &token.MockIssuer{}
		f.issuers.On("IssuerFor", other).Return(otherIssuer, nil)
		otherIssuer.On("Mint", mock.Anything, vaultAddr, uint256.NewInt(1)).Return(nil)
		otherIssuer.On("Burn", mock.Anything, uint256.NewInt(1)).Return(nil)

		res, err := f.execute(adminAddr, nil, ExecuteMsg{ReplaceVault: &AddVaultMsg{Denom: "ucosm", Address: other.Hex()}})
		require.NoError(t, err)
		assert.Equal(t, "replace_vault", res.Action())

		var addr VaultAddressResponse
		require.NoError(t, f.query(t, QueryMsg{VaultAddress: &VaultAddressQuery{Denom: "ucosm"}}, &addr))
		assert.Equal(t, other.Hex(), addr.Address)
	})

	t.Run("replace of unknown denomination fails", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(adminAddr, nil, ExecuteMsg{ReplaceVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrVaultDoesNotExist)
	})

	t.Run("operator policy", func(t *testing.T) {
		f := newFixture(t, AnyOf(robAddr))
		f.expectProbe()

		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = f.execute(robAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
		assert.NoError(t, err)
	})
}

func TestListDenominations_Ordered(t *testing.T) {
	f := newFixture(t, nil)
	f.issuers.On("IssuerFor", issuerAddr).Return(f.issuer, nil)
	f.issuer.On("Mint", mock.Anything, vaultAddr, uint256.NewInt(1)).Return(nil)
	f.issuer.On("Burn", mock.Anything, uint256.NewInt(1)).Return(nil)

	for _, denom := range []string{"uusd", "ibc/27394FB", "ucosm", "Uatom", "aevmos"} {
		_, err := f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: denom, Address: issuerAddr.Hex()}})
		require.NoError(t, err)
	}

	var denoms DenomResponse
	require.NoError(t, f.query(t, QueryMsg{DenomList: &struct{}{}}, &denoms))
	assert.Equal(t, []string{"Uatom", "aevmos", "ibc/27394FB", "ucosm", "uusd"}, denoms.Denoms)
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t, nil)
	rob := robAddr.Hex()

	_, err := f.execute(robAddr, nil, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{Admin: &rob}})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Absent admin leaves the config unchanged.
	_, err = f.execute(adminAddr, nil, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{}})
	require.NoError(t, err)
	var cfg ConfigResponse
	require.NoError(t, f.query(t, QueryMsg{Config: &struct{}{}}, &cfg))
	assert.Equal(t, adminAddr.Hex(), cfg.Admin)

	bad := "0x1234"
	_, err = f.execute(adminAddr, nil, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{Admin: &bad}})
	assert.ErrorIs(t, err, interfaces.ErrInvalidIdentity)

	res, err := f.execute(adminAddr, nil, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{Admin: &rob}})
	require.NoError(t, err)
	admin, _ := res.Attribute("admin")
	assert.Equal(t, robAddr.Hex(), admin)

	require.NoError(t, f.query(t, QueryMsg{Config: &struct{}{}}, &cfg))
	assert.Equal(t, robAddr.Hex(), cfg.Admin)

	// The previous admin has lost its rights.
	_, err = f.execute(adminAddr, nil, ExecuteMsg{AddVault: &AddVaultMsg{Denom: "ucosm", Address: issuerAddr.Hex()}})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBond(t *testing.T) {
	bond := func(denom string, amount uint64) ExecuteMsg {
		return ExecuteMsg{Bond: &BondMsg{Denom: denom, Amount: uint256.NewInt(amount)}}
	}

	paymentCases := []struct {
		name  string
		funds interfaces.Coins
		msg   ExecuteMsg
	}{
		{"no funds", nil, bond("ucosm", 100)},
		{"zero amount", interfaces.Coins{interfaces.NewCoin("ucosm", 0)}, bond("ucosm", 0)},
		{"two denominations", interfaces.Coins{interfaces.NewCoin("ucosm", 100), interfaces.NewCoin("uusd", 100)}, bond("ucosm", 100)},
		{"denomination mismatch", interfaces.Coins{interfaces.NewCoin("uusd", 100)}, bond("ucosm", 100)},
		{"amount mismatch", interfaces.Coins{interfaces.NewCoin("ucosm", 99)}, bond("ucosm", 100)},
	}
	for _, tc := range paymentCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.addVault(t, "ucosm")

			_, err := f.execute(robAddr, tc.funds, tc.msg)
			assert.ErrorIs(t, err, ErrPayment)
			f.issuer.AssertNotCalled(t, "Mint", mock.Anything, robAddr, mock.Anything)
		})
	}

	t.Run("unregistered denomination", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(robAddr, interfaces.Coins{interfaces.NewCoin("ucosm", 100)}, bond("ucosm", 100))
		assert.ErrorIs(t, err, ErrVaultDoesNotExist)
		f.issuers.AssertNotCalled(t, "IssuerFor", mock.Anything)
	})

	t.Run("mints attached amount to sender", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		f.issuer.On("Mint", mock.Anything, robAddr, uint256.NewInt(100)).Return(nil).Once()

		res, err := f.execute(robAddr, interfaces.Coins{interfaces.NewCoin("ucosm", 100)}, bond("ucosm", 100))
		require.NoError(t, err)
		assert.Equal(t, "bond", res.Action())
		amount, _ := res.Attribute("amount")
		assert.Equal(t, "100", amount)
		f.issuer.AssertExpectations(t)
	})

	t.Run("message fields are optional", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		f.issuer.On("Mint", mock.Anything, robAddr, uint256.NewInt(7)).Return(nil).Once()

		_, err := f.execute(robAddr, interfaces.Coins{interfaces.NewCoin("ucosm", 7)}, ExecuteMsg{Bond: &BondMsg{}})
		require.NoError(t, err)
		f.issuer.AssertExpectations(t)
	})

	t.Run("issuer failure propagates", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		capErr := errors.New("token: minting cannot exceed the cap")
		f.issuer.On("Mint", mock.Anything, robAddr, uint256.NewInt(100)).Return(capErr).Once()

		_, err := f.execute(robAddr, interfaces.Coins{interfaces.NewCoin("ucosm", 100)}, bond("ucosm", 100))
		assert.ErrorIs(t, err, capErr)
	})
}

func TestUnbond(t *testing.T) {
	unbond := func(denom string, amount uint64) ExecuteMsg {
		return ExecuteMsg{Unbond: &UnbondMsg{Denom: denom, Amount: uint256.NewInt(amount)}}
	}

	t.Run("unregistered denomination", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.execute(robAddr, nil, unbond("ucosm", 40))
		assert.ErrorIs(t, err, ErrVaultDoesNotExist)
	})

	t.Run("missing allowance sends nothing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		allowanceErr := errors.New("token: insufficient allowance")
		f.issuer.On("BurnFrom", mock.Anything, robAddr, uint256.NewInt(40)).Return(allowanceErr).Once()

		_, err := f.execute(robAddr, nil, unbond("ucosm", 40))
		assert.ErrorIs(t, err, allowanceErr)
		f.bank.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("burns then returns collateral", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		f.issuer.On("BurnFrom", mock.Anything, robAddr, uint256.NewInt(40)).Return(nil).Once()
		f.bank.On("Send", mock.Anything, robAddr, interfaces.Coins{interfaces.NewCoin("ucosm", 40)}).Return(nil).Once()

		res, err := f.execute(robAddr, nil, unbond("ucosm", 40))
		require.NoError(t, err)
		assert.Equal(t, "unbond", res.Action())
		f.issuer.AssertExpectations(t)
		f.bank.AssertExpectations(t)
	})

	t.Run("zero amount", func(t *testing.T) {
		f := newFixture(t, nil)
		f.addVault(t, "ucosm")
		_, err := f.execute(robAddr, nil, unbond("ucosm", 0))
		assert.ErrorIs(t, err, ErrPayment)
	})
}

func TestQueryBalance_ForwardsToIssuer(t *testing.T) {
	f := newFixture(t, nil)
	f.addVault(t, "ucosm")
	f.issuer.On("Balance", mock.Anything, robAddr).Return(uint256.NewInt(60), nil)

	var res BalanceResponse
	require.NoError(t, f.query(t, QueryMsg{Balance: &BalanceQuery{Owner: robAddr.Hex(), Denom: "ucosm"}}, &res))
	assert.Equal(t, uint64(60), res.Balance.Uint64())

	err := f.query(t, QueryMsg{Balance: &BalanceQuery{Owner: robAddr.Hex(), Denom: "uusd"}}, &res)
	assert.ErrorIs(t, err, ErrVaultDoesNotExist)
}

func TestExecute_RequiresExactlyOneOperation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.execute(adminAddr, nil, ExecuteMsg{})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = f.execute(adminAddr, nil, ExecuteMsg{UpdateConfig: &UpdateConfigMsg{}, Unbond: &UnbondMsg{}})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	var cfg ConfigResponse
	err = f.query(t, QueryMsg{}, &cfg)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestExecuteMsg_JSON(t *testing.T) {
	var msg ExecuteMsg
	require.NoError(t, json.Unmarshal([]byte(`{"add_vault":{"denom":"ucosm","address":"0x00000000000000000000000000000000000000c1"}}`), &msg))
	require.NotNil(t, msg.AddVault)
	assert.Equal(t, "add_vault", msg.Action())
	assert.Equal(t, "ucosm", msg.AddVault.Denom)
	assert.Equal(t, 1, msg.count())

	var update ExecuteMsg
	require.NoError(t, json.Unmarshal([]byte(`{"update_config":{}}`), &update))
	require.NotNil(t, update.UpdateConfig)
	assert.Nil(t, update.UpdateConfig.Admin)
	assert.Nil(t, update.AddVault)
	assert.Equal(t, 1, update.count())
	assert.Equal(t, "update_config", update.Action())
}
