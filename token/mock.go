package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ruteri/native-vault/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockIssuer mocks the interfaces.TokenIssuer interface
type MockIssuer struct {
	mock.Mock
}

// Address mocks the Address method
func (m *MockIssuer) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// Mint mocks the Mint method
func (m *MockIssuer) Mint(ctx context.Context, recipient common.Address, amount *uint256.Int) error {
	args := m.Called(ctx, recipient, amount)
	return args.Error(0)
}

// Burn mocks the Burn method
func (m *MockIssuer) Burn(ctx context.Context, amount *uint256.Int) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

// BurnFrom mocks the BurnFrom method
func (m *MockIssuer) BurnFrom(ctx context.Context, owner common.Address, amount *uint256.Int) error {
	args := m.Called(ctx, owner, amount)
	return args.Error(0)
}

// Balance mocks the Balance method
func (m *MockIssuer) Balance(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uint256.Int), args.Error(1)
}

// MockIssuerFactory mocks the interfaces.IssuerFactory interface
type MockIssuerFactory struct {
	mock.Mock
}

// IssuerFor mocks the IssuerFor method
func (m *MockIssuerFactory) IssuerFor(address common.Address) (interfaces.TokenIssuer, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.TokenIssuer), args.Error(1)
}
