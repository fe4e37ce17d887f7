package types

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/codec"
	"github.com/alex-sumner/solana-rabbitx-contract/common"
)

const (
	// MaxSupportedAssets bounds the supported asset list.
	MaxSupportedAssets = 10
	// MaxAuthorities bounds the timelock authority set.
	MaxAuthorities = 5
	// InitialSequence seeds both deposit and stake counters.
	InitialSequence = 1000

	// Reentrancy flag values. The flag is Unlocked at rest and Locked for
	// the duration of any value-moving operation.
	Unlocked uint8 = 1
	Locked   uint8 = 2

	// ProgramVersion is reported by the version accessor.
	ProgramVersion = "1.0.1"
)

// Governance operation kinds. The numbering is part of the queued-operation
// wire format and matches deployed instances; new kinds append.
const (
	OpChangeOwner              uint8 = 1
	OpChangeAuthorizationKey   uint8 = 2
	OpSetTimelockDelay         uint8 = 3
	OpAddTimelockAuthority     uint8 = 4
	OpRemoveTimelockAuthority  uint8 = 5
	OpSupportAsset             uint8 = 6
)

// StateDiscriminator prefixes every encoded LedgerState account.
var StateDiscriminator = codec.AccountDiscriminator("State")

// MinimumDeposit pairs an asset with its minimum accepted deposit amount.
// Every entry has a matching entry in SupportedAssets.
type MinimumDeposit struct {
	Asset  common.Address
	Amount uint64
}

// GovernanceOperation is a queued, delayed, authority-gated configuration
// change. ExecutableAt is fixed at queue time and is not recomputed if the
// timelock delay later changes.
type GovernanceOperation struct {
	Kind         uint8
	Payload      []byte
	QueuedAt     int64
	ExecutableAt int64
}

// LedgerState is the singleton custody and governance account.
type LedgerState struct {
	Owner                common.Address
	AuthorizationKey     common.EthAddress
	NextDepositSeq       uint64
	NextStakeSeq         uint64
	ReentrancyFlag       uint8
	TokenCustodyBump     uint8
	NativeCustodyBump    uint8
	SupportedAssets      []common.Address
	MinimumDeposits      []MinimumDeposit
	TimelockAuthorities  []common.Address
	TimelockDelaySeconds int64
	PendingOperations    []GovernanceOperation
	DomainDescriptor     *common.Hash
}

// Encode serializes the account to its fixed little-endian layout.
func (s *LedgerState) Encode() []byte {
	e := codec.NewEncoder()
	e.WriteDiscriminator(StateDiscriminator)
	e.WriteRaw(s.Owner.Bytes())
	e.WriteRaw(s.AuthorizationKey.Bytes())
	e.WriteUint64(s.NextDepositSeq)
	e.WriteUint64(s.NextStakeSeq)
	e.WriteUint8(s.ReentrancyFlag)
	e.WriteUint8(s.TokenCustodyBump)
	e.WriteUint8(s.NativeCustodyBump)

	e.WriteLength(len(s.SupportedAssets))
	for _, asset := range s.SupportedAssets {
		e.WriteRaw(asset.Bytes())
	}

	e.WriteLength(len(s.MinimumDeposits))
	for _, md := range s.MinimumDeposits {
		e.WriteRaw(md.Asset.Bytes())
		e.WriteUint64(md.Amount)
	}

	e.WriteLength(len(s.TimelockAuthorities))
	for _, authority := range s.TimelockAuthorities {
		e.WriteRaw(authority.Bytes())
	}

	e.WriteInt64(s.TimelockDelaySeconds)

	e.WriteLength(len(s.PendingOperations))
	for _, op := range s.PendingOperations {
		e.WriteUint8(op.Kind)
		e.WriteVarBytes(op.Payload)
		e.WriteInt64(op.QueuedAt)
		e.WriteInt64(op.ExecutableAt)
	}

	e.WriteOption(s.DomainDescriptor != nil)
	if s.DomainDescriptor != nil {
		e.WriteRaw(s.DomainDescriptor.Bytes())
	}
	return e.Bytes()
}

// DecodeLedgerState deserializes a LedgerState account, verifying the type
// discriminator before interpreting the remainder. Unknown operation kinds
// decode with opaque payloads.
func DecodeLedgerState(data []byte) (*LedgerState, error) {
	d := codec.NewDecoder(data)
	if err := d.ReadDiscriminator(StateDiscriminator); err != nil {
		return nil, err
	}

	s := &LedgerState{}
	var err error
	var raw []byte

	if raw, err = d.ReadRaw(common.AddressLength); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	s.Owner = common.BytesToAddress(raw)

	if raw, err = d.ReadRaw(20); err != nil {
		return nil, fmt.Errorf("authorization key: %w", err)
	}
	s.AuthorizationKey = common.BytesToEthAddress(raw)

	if s.NextDepositSeq, err = d.ReadUint64(); err != nil {
		return nil, fmt.Errorf("next deposit seq: %w", err)
	}
	if s.NextStakeSeq, err = d.ReadUint64(); err != nil {
		return nil, fmt.Errorf("next stake seq: %w", err)
	}
	if s.ReentrancyFlag, err = d.ReadUint8(); err != nil {
		return nil, fmt.Errorf("reentrancy flag: %w", err)
	}
	if s.TokenCustodyBump, err = d.ReadUint8(); err != nil {
		return nil, fmt.Errorf("token custody bump: %w", err)
	}
	if s.NativeCustodyBump, err = d.ReadUint8(); err != nil {
		return nil, fmt.Errorf("native custody bump: %w", err)
	}

	n, err := d.ReadLength()
	if err != nil {
		return nil, fmt.Errorf("supported assets: %w", err)
	}
	for i := 0; i < n; i++ {
		if raw, err = d.ReadRaw(common.AddressLength); err != nil {
			return nil, fmt.Errorf("supported asset %d: %w", i, err)
		}
		s.SupportedAssets = append(s.SupportedAssets, common.BytesToAddress(raw))
	}

	if n, err = d.ReadLength(); err != nil {
		return nil, fmt.Errorf("minimum deposits: %w", err)
	}
	for i := 0; i < n; i++ {
		var md MinimumDeposit
		if raw, err = d.ReadRaw(common.AddressLength); err != nil {
			return nil, fmt.Errorf("minimum deposit asset %d: %w", i, err)
		}
		md.Asset = common.BytesToAddress(raw)
		if md.Amount, err = d.ReadUint64(); err != nil {
			return nil, fmt.Errorf("minimum deposit amount %d: %w", i, err)
		}
		s.MinimumDeposits = append(s.MinimumDeposits, md)
	}

	if n, err = d.ReadLength(); err != nil {
		return nil, fmt.Errorf("timelock authorities: %w", err)
	}
	for i := 0; i < n; i++ {
		if raw, err = d.ReadRaw(common.AddressLength); err != nil {
			return nil, fmt.Errorf("timelock authority %d: %w", i, err)
		}
		s.TimelockAuthorities = append(s.TimelockAuthorities, common.BytesToAddress(raw))
	}

	if s.TimelockDelaySeconds, err = d.ReadInt64(); err != nil {
		return nil, fmt.Errorf("timelock delay: %w", err)
	}

	if n, err = d.ReadLength(); err != nil {
		return nil, fmt.Errorf("pending operations: %w", err)
	}
	for i := 0; i < n; i++ {
		var op GovernanceOperation
		if op.Kind, err = d.ReadUint8(); err != nil {
			return nil, fmt.Errorf("operation kind %d: %w", i, err)
		}
		if op.Payload, err = d.ReadVarBytes(); err != nil {
			return nil, fmt.Errorf("operation payload %d: %w", i, err)
		}
		if op.QueuedAt, err = d.ReadInt64(); err != nil {
			return nil, fmt.Errorf("operation queuedAt %d: %w", i, err)
		}
		if op.ExecutableAt, err = d.ReadInt64(); err != nil {
			return nil, fmt.Errorf("operation executableAt %d: %w", i, err)
		}
		s.PendingOperations = append(s.PendingOperations, op)
	}

	present, err := d.ReadOption()
	if err != nil {
		return nil, fmt.Errorf("domain descriptor presence: %w", err)
	}
	if present {
		if raw, err = d.ReadRaw(32); err != nil {
			return nil, fmt.Errorf("domain descriptor: %w", err)
		}
		h := common.BytesToHash(raw)
		s.DomainDescriptor = &h
	}

	if err = d.Finish(); err != nil {
		return nil, err
	}
	return s, nil
}

// IsSupportedAsset reports whether the asset may be deposited or withdrawn.
func (s *LedgerState) IsSupportedAsset(asset common.Address) bool {
	for _, a := range s.SupportedAssets {
		if a == asset {
			return true
		}
	}
	return false
}

// MinimumDepositFor returns the minimum accepted deposit for the asset.
func (s *LedgerState) MinimumDepositFor(asset common.Address) (uint64, bool) {
	for _, md := range s.MinimumDeposits {
		if md.Asset == asset {
			return md.Amount, true
		}
	}
	return 0, false
}

// SetMinimumDeposit inserts or replaces the minimum for the asset.
func (s *LedgerState) SetMinimumDeposit(asset common.Address, amount uint64) {
	for i, md := range s.MinimumDeposits {
		if md.Asset == asset {
			s.MinimumDeposits[i].Amount = amount
			return
		}
	}
	s.MinimumDeposits = append(s.MinimumDeposits, MinimumDeposit{Asset: asset, Amount: amount})
}

// RemoveMinimumDeposit drops the minimum for the asset, reporting whether it existed.
func (s *LedgerState) RemoveMinimumDeposit(asset common.Address) bool {
	for i, md := range s.MinimumDeposits {
		if md.Asset == asset {
			s.MinimumDeposits = append(s.MinimumDeposits[:i], s.MinimumDeposits[i+1:]...)
			return true
		}
	}
	return false
}

// IsTimelockAuthority reports whether the identity may queue, execute or
// cancel governance operations.
func (s *LedgerState) IsTimelockAuthority(authority common.Address) bool {
	for _, a := range s.TimelockAuthorities {
		if a == authority {
			return true
		}
	}
	return false
}
