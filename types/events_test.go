package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
)

func TestEventLayout(t *testing.T) {
	ev := NewDepositEvent(1000, testAddr(0xaa), 1_000_000, testAddr(0xbb))
	data := ev.Encode()
	require.Len(t, data, EventLength)

	assert.Equal(t, DepositEventDiscriminator[:], data[:8])
	assert.Equal(t, common.Uint64ToBytes(1000), data[8:16])
	assert.Equal(t, testAddr(0xaa).Bytes(), data[16:48])
	assert.Equal(t, common.Uint64ToBytes(1_000_000), data[48:56])
	assert.Equal(t, testAddr(0xbb).Bytes(), data[56:88])
}

func TestEventRoundTrip(t *testing.T) {
	for _, ev := range []Event{
		NewDepositEvent(1000, testAddr(1), 50, testAddr(2)),
		NewStakeEvent(1001, testAddr(3), 75, testAddr(4)),
		NewWithdrawalEvent(12345, testAddr(5), 500_000, testAddr(6)),
	} {
		decoded, err := DecodeEvent(ev.Encode())
		require.NoError(t, err)
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeEventWrongLength(t *testing.T) {
	_, err := DecodeEvent(make([]byte, EventLength-1))
	assert.Error(t, err)
	_, err = DecodeEvent(make([]byte, EventLength+1))
	assert.Error(t, err)
}

func TestEventDiscriminatorsDistinct(t *testing.T) {
	assert.NotEqual(t, DepositEventDiscriminator, StakeEventDiscriminator)
	assert.NotEqual(t, DepositEventDiscriminator, WithdrawalEventDiscriminator)
	assert.NotEqual(t, StakeEventDiscriminator, WithdrawalEventDiscriminator)
}

func TestSequenceIDStrings(t *testing.T) {
	assert.Equal(t, "d_1000_rbx_sol", DepositID(1000))
	assert.Equal(t, "s_1007_rbx_sol", StakeID(1007))
}
