package flags

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentities(t *testing.T) {
	res, err := ParseIdentities([]string{
		"0x0000000000000000000000000000000000000001, 0000000000000000000000000000000000000002",
		"",
		"0x0000000000000000000000000000000000000003",
	})
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
	}, res)

	_, err = ParseIdentities([]string{"0x01"})
	assert.Error(t, err)
}
