package types

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/codec"
	"github.com/alex-sumner/solana-rabbitx-contract/common"
)

// EventLength is the fixed byte length of every emitted event payload:
// 8-byte header, 8-byte sequence or identifier, 32-byte beneficiary,
// 8-byte amount, 32-byte asset. External log pollers decode exactly this
// layout and nothing else.
const EventLength = 88

var (
	DepositEventDiscriminator    = codec.EventDiscriminator("Deposit")
	StakeEventDiscriminator      = codec.EventDiscriminator("Stake")
	WithdrawalEventDiscriminator = codec.EventDiscriminator("Withdrawal")
)

// Event is the 88-byte payload emitted for deposits, stakes and withdrawals.
// ID carries the deposit/stake sequence number or the withdrawal identifier.
type Event struct {
	Header      codec.Discriminator
	ID          uint64
	Beneficiary common.Address
	Amount      uint64
	Asset       common.Address
}

// NewDepositEvent builds the event payload for a completed deposit.
func NewDepositEvent(seq uint64, beneficiary common.Address, amount uint64, asset common.Address) Event {
	return Event{Header: DepositEventDiscriminator, ID: seq, Beneficiary: beneficiary, Amount: amount, Asset: asset}
}

// NewStakeEvent builds the event payload for a completed stake.
func NewStakeEvent(seq uint64, beneficiary common.Address, amount uint64, asset common.Address) Event {
	return Event{Header: StakeEventDiscriminator, ID: seq, Beneficiary: beneficiary, Amount: amount, Asset: asset}
}

// NewWithdrawalEvent builds the event payload for a completed withdrawal.
func NewWithdrawalEvent(id uint64, beneficiary common.Address, amount uint64, asset common.Address) Event {
	return Event{Header: WithdrawalEventDiscriminator, ID: id, Beneficiary: beneficiary, Amount: amount, Asset: asset}
}

// Encode serializes the event to its fixed 88-byte layout.
func (ev Event) Encode() []byte {
	e := codec.NewEncoder()
	e.WriteDiscriminator(ev.Header)
	e.WriteUint64(ev.ID)
	e.WriteRaw(ev.Beneficiary.Bytes())
	e.WriteUint64(ev.Amount)
	e.WriteRaw(ev.Asset.Bytes())
	return e.Bytes()
}

// DecodeEvent deserializes an 88-byte event payload. The header is returned
// as-is; callers dispatch on it.
func DecodeEvent(data []byte) (Event, error) {
	if len(data) != EventLength {
		return Event{}, fmt.Errorf("event payload is %d bytes, want %d", len(data), EventLength)
	}
	d := codec.NewDecoder(data)
	var ev Event
	raw, err := d.ReadRaw(codec.DiscriminatorLength)
	if err != nil {
		return Event{}, err
	}
	copy(ev.Header[:], raw)
	if ev.ID, err = d.ReadUint64(); err != nil {
		return Event{}, err
	}
	if raw, err = d.ReadRaw(common.AddressLength); err != nil {
		return Event{}, err
	}
	ev.Beneficiary = common.BytesToAddress(raw)
	if ev.Amount, err = d.ReadUint64(); err != nil {
		return Event{}, err
	}
	if raw, err = d.ReadRaw(common.AddressLength); err != nil {
		return Event{}, err
	}
	ev.Asset = common.BytesToAddress(raw)
	if err = d.Finish(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// DepositID renders the human-readable id logged for a deposit sequence.
func DepositID(seq uint64) string {
	return fmt.Sprintf("d_%d_rbx_sol", seq)
}

// StakeID renders the human-readable id logged for a stake sequence.
func StakeID(seq uint64) string {
	return fmt.Sprintf("s_%d_rbx_sol", seq)
}
