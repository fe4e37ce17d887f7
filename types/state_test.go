package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
)

func testAddr(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func sampleState() *LedgerState {
	domain := common.Keccak256([]byte("domain"))
	return &LedgerState{
		Owner:             testAddr(0x11),
		AuthorizationKey:  common.BytesToEthAddress(common.Hex2Bytes("2222222222222222222222222222222222222222")),
		NextDepositSeq:    InitialSequence,
		NextStakeSeq:      InitialSequence + 5,
		ReentrancyFlag:    Unlocked,
		TokenCustodyBump:  254,
		NativeCustodyBump: 253,
		SupportedAssets:   []common.Address{testAddr(0x33), testAddr(0x44)},
		MinimumDeposits: []MinimumDeposit{
			{Asset: testAddr(0x33), Amount: 100},
			{Asset: testAddr(0x44), Amount: 250},
		},
		TimelockAuthorities:  []common.Address{testAddr(0x55)},
		TimelockDelaySeconds: 3600,
		PendingOperations: []GovernanceOperation{
			{Kind: OpSetTimelockDelay, Payload: common.Uint64ToBytes(7200), QueuedAt: 1000, ExecutableAt: 4600},
		},
		DomainDescriptor: &domain,
	}
}

func TestLedgerStateRoundTrip(t *testing.T) {
	s := sampleState()
	decoded, err := DecodeLedgerState(s.Encode())
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestLedgerStateRoundTripEmpty(t *testing.T) {
	s := &LedgerState{
		Owner:            testAddr(0x01),
		AuthorizationKey: common.BytesToEthAddress(common.Hex2Bytes("0101010101010101010101010101010101010101")),
		NextDepositSeq:   InitialSequence,
		NextStakeSeq:     InitialSequence,
		ReentrancyFlag:   Unlocked,
	}
	decoded, err := DecodeLedgerState(s.Encode())
	require.NoError(t, err)
	assert.Equal(t, s.Owner, decoded.Owner)
	assert.Empty(t, decoded.SupportedAssets)
	assert.Empty(t, decoded.PendingOperations)
	assert.Nil(t, decoded.DomainDescriptor)
}

// The fixed prefix of the layout must stay byte-stable: deployed accounts
// decode against these exact offsets.
func TestLedgerStateFixedOffsets(t *testing.T) {
	s := sampleState()
	data := s.Encode()

	assert.Equal(t, StateDiscriminator[:], data[:8])
	assert.Equal(t, s.Owner.Bytes(), data[8:40])
	assert.Equal(t, s.AuthorizationKey.Bytes(), data[40:60])
	assert.Equal(t, common.Uint64ToBytes(s.NextDepositSeq), data[60:68])
	assert.Equal(t, common.Uint64ToBytes(s.NextStakeSeq), data[68:76])
	assert.Equal(t, s.ReentrancyFlag, data[76])
	assert.Equal(t, s.TokenCustodyBump, data[77])
	assert.Equal(t, s.NativeCustodyBump, data[78])
	// Supported assets: u32 count, then 32 bytes per entry.
	assert.Equal(t, uint32(2), common.BytesToUint32(data[79:83]))
	assert.Equal(t, s.SupportedAssets[0].Bytes(), data[83:115])
}

func TestDecodeLedgerStateWrongDiscriminator(t *testing.T) {
	data := sampleState().Encode()
	copy(data[:8], WithdrawalRecordDiscriminator[:])
	_, err := DecodeLedgerState(data)
	assert.True(t, errors.Is(err, rbxerrors.ErrCTypeMismatch))
}

func TestDecodeLedgerStateTruncated(t *testing.T) {
	data := sampleState().Encode()
	for _, cut := range []int{7, 39, 59, 78, len(data) - 1} {
		_, err := DecodeLedgerState(data[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestDecodeLedgerStateTrailingBytes(t *testing.T) {
	data := append(sampleState().Encode(), 0x00)
	_, err := DecodeLedgerState(data)
	assert.True(t, errors.Is(err, rbxerrors.ErrCTrailingData))
}

func TestMinimumDepositHelpers(t *testing.T) {
	s := sampleState()

	min, ok := s.MinimumDepositFor(testAddr(0x33))
	assert.True(t, ok)
	assert.Equal(t, uint64(100), min)

	_, ok = s.MinimumDepositFor(testAddr(0x99))
	assert.False(t, ok)

	s.SetMinimumDeposit(testAddr(0x33), 500)
	min, _ = s.MinimumDepositFor(testAddr(0x33))
	assert.Equal(t, uint64(500), min)

	assert.True(t, s.RemoveMinimumDeposit(testAddr(0x33)))
	_, ok = s.MinimumDepositFor(testAddr(0x33))
	assert.False(t, ok)
	assert.False(t, s.RemoveMinimumDeposit(testAddr(0x33)))
}

func TestAuthorityAndAssetMembership(t *testing.T) {
	s := sampleState()
	assert.True(t, s.IsSupportedAsset(testAddr(0x44)))
	assert.False(t, s.IsSupportedAsset(testAddr(0x99)))
	assert.True(t, s.IsTimelockAuthority(testAddr(0x55)))
	assert.False(t, s.IsTimelockAuthority(testAddr(0x11)))
}
