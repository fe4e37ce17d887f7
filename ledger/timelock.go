package ledger

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
)

// Governance payload sizes by operation kind.
const (
	addressPayloadLen      = 32
	ethAddressPayloadLen   = 20
	delayPayloadLen        = 8
	supportAssetPayloadLen = 40 // asset (32) + minimum deposit (8, LE)
)

// QueueOperation appends a governance operation to the pending queue and
// returns its index. The operation becomes executable after the timelock
// delay in force at queue time; a later delay change does not move it.
func (l *Ledger) QueueOperation(caller common.Address, kind uint8, payload []byte) (int, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return 0, err
	}
	if !state.IsTimelockAuthority(caller) {
		return 0, rbxerrors.ErrGUnauthorized
	}
	if err := validatePayloadShape(kind, payload); err != nil {
		return 0, err
	}

	now := l.Now()
	op := types.GovernanceOperation{
		Kind:         kind,
		Payload:      append([]byte(nil), payload...),
		QueuedAt:     now,
		ExecutableAt: now + state.TimelockDelaySeconds,
	}
	state.PendingOperations = append(state.PendingOperations, op)
	index := len(state.PendingOperations) - 1

	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info(log.TimelockModule, "operation queued",
		"index", index,
		"kind", kind,
		"executable_at", op.ExecutableAt)
	return index, nil
}

// ExecuteOperation applies the pending operation at index and removes it
// from the queue. Indices of operations queued after it shift down by one;
// callers racing on the same queue must re-check what an index points at.
func (l *Ledger) ExecuteOperation(caller common.Address, index int) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if !state.IsTimelockAuthority(caller) {
		return rbxerrors.ErrGUnauthorized
	}
	if index < 0 || index >= len(state.PendingOperations) {
		return fmt.Errorf("%w: %d", rbxerrors.ErrGInvalidOperationIndex, index)
	}
	op := state.PendingOperations[index]
	if l.Now() < op.ExecutableAt {
		return fmt.Errorf("%w: executable at %d", rbxerrors.ErrGTimelockDelayNotMet, op.ExecutableAt)
	}
	if err := applyOperation(state, op); err != nil {
		return err
	}
	state.PendingOperations = append(state.PendingOperations[:index], state.PendingOperations[index+1:]...)

	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.TimelockModule, "operation executed", "index", index, "kind", op.Kind)
	return nil
}

// CancelOperation removes the pending operation at index without applying
// it. Any timelock authority may cancel, at any time before execution.
func (l *Ledger) CancelOperation(caller common.Address, index int) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if !state.IsTimelockAuthority(caller) {
		return rbxerrors.ErrGUnauthorized
	}
	if index < 0 || index >= len(state.PendingOperations) {
		return fmt.Errorf("%w: %d", rbxerrors.ErrGInvalidOperationIndex, index)
	}
	kind := state.PendingOperations[index].Kind
	state.PendingOperations = append(state.PendingOperations[:index], state.PendingOperations[index+1:]...)

	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.TimelockModule, "operation cancelled", "index", index, "kind", kind)
	return nil
}

// PendingOperations returns a copy of the governance queue.
func (l *Ledger) PendingOperations() ([]types.GovernanceOperation, error) {
	state, err := l.State()
	if err != nil {
		return nil, err
	}
	return append([]types.GovernanceOperation(nil), state.PendingOperations...), nil
}

// validatePayloadShape rejects unrecognized kinds and wrongly sized
// payloads at queue time. Semantic checks against current state run at
// execution, since the state may change while the operation waits.
func validatePayloadShape(kind uint8, payload []byte) error {
	var want int
	switch kind {
	case types.OpChangeOwner, types.OpAddTimelockAuthority, types.OpRemoveTimelockAuthority:
		want = addressPayloadLen
	case types.OpChangeAuthorizationKey:
		want = ethAddressPayloadLen
	case types.OpSetTimelockDelay:
		want = delayPayloadLen
	case types.OpSupportAsset:
		want = supportAssetPayloadLen
	default:
		return fmt.Errorf("%w: %d", rbxerrors.ErrGInvalidOperationKind, kind)
	}
	if len(payload) != want {
		return fmt.Errorf("%w: kind %d wants %d bytes, got %d",
			rbxerrors.ErrGInvalidOperationPayload, kind, want, len(payload))
	}
	return nil
}

func applyOperation(state *types.LedgerState, op types.GovernanceOperation) error {
	if err := validatePayloadShape(op.Kind, op.Payload); err != nil {
		return err
	}
	switch op.Kind {
	case types.OpChangeOwner:
		owner := common.BytesToAddress(op.Payload)
		if owner.IsZero() {
			return rbxerrors.ErrGInvalidAuthority
		}
		state.Owner = owner

	case types.OpChangeAuthorizationKey:
		key := common.BytesToEthAddress(op.Payload)
		if key.IsZero() {
			return rbxerrors.ErrGInvalidSigner
		}
		// The signing domain descriptor stays as computed at first use;
		// already-signed withdrawals against the old key stop verifying,
		// which is the point of rotating it.
		state.AuthorizationKey = key

	case types.OpSetTimelockDelay:
		delay := int64(common.BytesToUint64(op.Payload))
		if delay < 0 {
			return rbxerrors.ErrGInvalidTimelockDelay
		}
		state.TimelockDelaySeconds = delay

	case types.OpAddTimelockAuthority:
		authority := common.BytesToAddress(op.Payload)
		if authority.IsZero() {
			return rbxerrors.ErrGInvalidAuthority
		}
		if state.IsTimelockAuthority(authority) {
			return rbxerrors.ErrGAuthorityAlreadyExists
		}
		if len(state.TimelockAuthorities) >= types.MaxAuthorities {
			return rbxerrors.ErrGTooManyAuthorities
		}
		state.TimelockAuthorities = append(state.TimelockAuthorities, authority)

	case types.OpRemoveTimelockAuthority:
		authority := common.BytesToAddress(op.Payload)
		index := -1
		for i, a := range state.TimelockAuthorities {
			if a == authority {
				index = i
				break
			}
		}
		if index < 0 {
			return rbxerrors.ErrGAuthorityNotFound
		}
		if len(state.TimelockAuthorities) <= 1 {
			return rbxerrors.ErrGCannotRemoveLastAuthority
		}
		state.TimelockAuthorities = append(state.TimelockAuthorities[:index], state.TimelockAuthorities[index+1:]...)

	case types.OpSupportAsset:
		asset := common.BytesToAddress(op.Payload[:32])
		minimum := common.BytesToUint64(op.Payload[32:])
		return applySupportAsset(state, asset, minimum)
	}
	return nil
}
