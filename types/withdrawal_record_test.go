package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
)

func TestBucketForID(t *testing.T) {
	tests := []struct {
		id     uint64
		bucket uint64
	}{
		{0, 0},
		{1, 0},
		{3999, 0},
		{4000, 1},
		{4001, 1},
		{7999, 1},
		{8000, 2},
		{12345, 3},
		{4000*1000 - 1, 999},
		{4000 * 1000, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bucket, BucketForID(tt.id), "id %d", tt.id)
	}
}

func TestMarkAndCheckProcessed(t *testing.T) {
	r := NewWithdrawalRecord(12345)
	assert.Equal(t, uint64(3), r.Index)

	assert.False(t, r.IsProcessed(12345))
	r.MarkProcessed(12345)
	assert.True(t, r.IsProcessed(12345))

	// Neighbors in the same bucket stay clear.
	assert.False(t, r.IsProcessed(12344))
	assert.False(t, r.IsProcessed(12346))
}

func TestBitmapBucketBoundaries(t *testing.T) {
	r := NewWithdrawalRecord(4000)
	for _, id := range []uint64{4000, 4007, 7992, 7999} {
		assert.False(t, r.IsProcessed(id))
		r.MarkProcessed(id)
		assert.True(t, r.IsProcessed(id), "id %d", id)
	}
	// First id of the bucket sets the lowest bit of the first byte,
	// last id sets the highest bit of the last byte.
	assert.Equal(t, byte(0b10000001), r.ProcessedBits[0])
	assert.Equal(t, byte(0b10000001), r.ProcessedBits[WithdrawalBitmapSize-1])
}

func TestWithdrawalRecordRoundTrip(t *testing.T) {
	r := NewWithdrawalRecord(8000)
	r.MarkProcessed(8001)
	r.MarkProcessed(11999)

	decoded, err := DecodeWithdrawalRecord(r.Encode())
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
	assert.True(t, decoded.IsProcessed(8001))
	assert.False(t, decoded.IsProcessed(8002))
}

func TestWithdrawalRecordEncodedLength(t *testing.T) {
	// 8 discriminator + 8 index + 500 bitmap.
	assert.Equal(t, 516, len(NewWithdrawalRecord(0).Encode()))
}

func TestDecodeWithdrawalRecordWrongDiscriminator(t *testing.T) {
	data := NewWithdrawalRecord(0).Encode()
	copy(data[:8], StateDiscriminator[:])
	_, err := DecodeWithdrawalRecord(data)
	assert.True(t, errors.Is(err, rbxerrors.ErrCTypeMismatch))
}
