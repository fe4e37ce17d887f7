package types

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/codec"
)

const (
	// WithdrawalsPerRecord is the bucket size: the range of withdrawal
	// identifiers sharing one persistent record.
	WithdrawalsPerRecord = 4000
	// WithdrawalBitmapSize is 500 bytes * 8 bits = 4000 withdrawals.
	WithdrawalBitmapSize = 500
)

// WithdrawalRecordDiscriminator prefixes every encoded WithdrawalRecord account.
var WithdrawalRecordDiscriminator = codec.AccountDiscriminator("WithdrawalRecord")

// WithdrawalRecord tracks which withdrawal identifiers within one bucket
// have been consumed. A record is lazily created on the first withdrawal in
// its bucket and is never deleted.
type WithdrawalRecord struct {
	Index         uint64
	ProcessedBits [WithdrawalBitmapSize]byte
}

// BucketForID returns the record index responsible for a withdrawal id.
func BucketForID(id uint64) uint64 {
	return id / WithdrawalsPerRecord
}

// NewWithdrawalRecord creates the empty record for the bucket containing id.
func NewWithdrawalRecord(id uint64) *WithdrawalRecord {
	return &WithdrawalRecord{Index: BucketForID(id)}
}

// IsProcessed reports whether the identifier's slot within the bucket is marked.
func (r *WithdrawalRecord) IsProcessed(id uint64) bool {
	bitIndex := int(id % WithdrawalsPerRecord)
	return (r.ProcessedBits[bitIndex/8] & (1 << (bitIndex % 8))) != 0
}

// MarkProcessed marks the identifier's slot within the bucket.
func (r *WithdrawalRecord) MarkProcessed(id uint64) {
	bitIndex := int(id % WithdrawalsPerRecord)
	r.ProcessedBits[bitIndex/8] |= 1 << (bitIndex % 8)
}

// Encode serializes the record to its fixed layout.
func (r *WithdrawalRecord) Encode() []byte {
	e := codec.NewEncoder()
	e.WriteDiscriminator(WithdrawalRecordDiscriminator)
	e.WriteUint64(r.Index)
	e.WriteRaw(r.ProcessedBits[:])
	return e.Bytes()
}

// DecodeWithdrawalRecord deserializes a WithdrawalRecord account, verifying
// the type discriminator first.
func DecodeWithdrawalRecord(data []byte) (*WithdrawalRecord, error) {
	d := codec.NewDecoder(data)
	if err := d.ReadDiscriminator(WithdrawalRecordDiscriminator); err != nil {
		return nil, err
	}
	r := &WithdrawalRecord{}
	var err error
	if r.Index, err = d.ReadUint64(); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	raw, err := d.ReadRaw(WithdrawalBitmapSize)
	if err != nil {
		return nil, fmt.Errorf("bitmap: %w", err)
	}
	copy(r.ProcessedBits[:], raw)
	if err = d.Finish(); err != nil {
		return nil, err
	}
	return r, nil
}
