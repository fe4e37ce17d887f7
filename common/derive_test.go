package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = MustBase58ToAddress("CZBh9LezU7rC2vpxCBs8w1TSFYmHDjU2WmWYkkcocq9W")

func TestFindDerivedAddressDeterministic(t *testing.T) {
	addr1, bump1, err := FindDerivedAddress([][]byte{[]byte("state")}, testProgram)
	require.NoError(t, err)
	addr2, bump2, err := FindDerivedAddress([][]byte{[]byte("state")}, testProgram)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Equal(t, bump1, bump2)
	assert.False(t, addr1.IsZero())
}

func TestFindDerivedAddressSeedsMatter(t *testing.T) {
	stateAddr, _, err := FindDerivedAddress([][]byte{[]byte("state")}, testProgram)
	require.NoError(t, err)
	custodyAddr, _, err := FindDerivedAddress([][]byte{[]byte("token_authority")}, testProgram)
	require.NoError(t, err)
	assert.NotEqual(t, stateAddr, custodyAddr)

	// Extra seed components produce distinct addresses.
	bucket0, _, err := FindDerivedAddress([][]byte{[]byte("withdrawal_account"), Uint64ToBytes(0)}, testProgram)
	require.NoError(t, err)
	bucket1, _, err := FindDerivedAddress([][]byte{[]byte("withdrawal_account"), Uint64ToBytes(1)}, testProgram)
	require.NoError(t, err)
	assert.NotEqual(t, bucket0, bucket1)
}

func TestCreateDerivedAddressMatchesFound(t *testing.T) {
	addr, bump, err := FindDerivedAddress([][]byte{[]byte("sol_account")}, testProgram)
	require.NoError(t, err)

	recreated, err := CreateDerivedAddress([][]byte{[]byte("sol_account")}, bump, testProgram)
	require.NoError(t, err)
	assert.Equal(t, addr, recreated)
}

func TestFoundAddressIsOffCurve(t *testing.T) {
	addr, _, err := FindDerivedAddress([][]byte{[]byte("state")}, testProgram)
	require.NoError(t, err)
	assert.False(t, isOnCurve(addr))
}
