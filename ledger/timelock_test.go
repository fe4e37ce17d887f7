package ledger

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
	"github.com/alex-sumner/solana-rabbitx-contract/verify"
)

func TestQueueRequiresAuthority(t *testing.T) {
	env := newTestEnv(t, 5)
	_, err := env.ledger.QueueOperation(depositor, types.OpChangeOwner, testAddr(0x10).Bytes())
	assert.True(t, errors.Is(err, rbxerrors.ErrGUnauthorized))
}

func TestQueueRejectsBadKindAndPayload(t *testing.T) {
	env := newTestEnv(t, 5)

	_, err := env.ledger.QueueOperation(authority, 0, nil)
	assert.True(t, errors.Is(err, rbxerrors.ErrGInvalidOperationKind))

	_, err = env.ledger.QueueOperation(authority, 99, testAddr(1).Bytes())
	assert.True(t, errors.Is(err, rbxerrors.ErrGInvalidOperationKind))

	_, err = env.ledger.QueueOperation(authority, types.OpChangeOwner, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, rbxerrors.ErrGInvalidOperationPayload))

	_, err = env.ledger.QueueOperation(authority, types.OpChangeAuthorizationKey, testAddr(1).Bytes())
	assert.True(t, errors.Is(err, rbxerrors.ErrGInvalidOperationPayload))
}

func TestExecuteHonorsDelay(t *testing.T) {
	env := newTestEnv(t, 5)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpChangeOwner, testAddr(0x10).Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGTimelockDelayNotMet))

	env.clock += 4
	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGTimelockDelayNotMet))

	env.clock += 1
	require.NoError(t, l.ExecuteOperation(authority, index))

	state, err := l.State()
	require.NoError(t, err)
	assert.Equal(t, testAddr(0x10), state.Owner)
	assert.Empty(t, state.PendingOperations)
}

func TestDelayChangeAppliesToLaterQueuesOnly(t *testing.T) {
	env := newTestEnv(t, 5)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpSetTimelockDelay, common.Uint64ToBytes(10))
	require.NoError(t, err)

	env.clock += 5
	require.NoError(t, l.ExecuteOperation(authority, index))

	state, err := l.State()
	require.NoError(t, err)
	assert.Equal(t, int64(10), state.TimelockDelaySeconds)

	// An operation queued now waits the new delay.
	index, err = l.QueueOperation(authority, types.OpChangeOwner, testAddr(0x10).Bytes())
	require.NoError(t, err)

	env.clock += 9
	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGTimelockDelayNotMet))

	env.clock += 1
	require.NoError(t, l.ExecuteOperation(authority, index))
}

func TestExecutableAtFixedAtQueueTime(t *testing.T) {
	env := newTestEnv(t, 5)
	l := env.ledger

	// Queue a change-owner first, then shorten the delay. The first
	// operation keeps its original executable-at.
	ownerIdx, err := l.QueueOperation(authority, types.OpChangeOwner, testAddr(0x10).Bytes())
	require.NoError(t, err)

	ops, err := l.PendingOperations()
	require.NoError(t, err)
	require.Len(t, ops, 1)
	wantAt := ops[0].ExecutableAt

	delayIdx, err := l.QueueOperation(authority, types.OpSetTimelockDelay, common.Uint64ToBytes(0))
	require.NoError(t, err)

	env.clock += 5
	require.NoError(t, l.ExecuteOperation(authority, delayIdx))

	ops, err = l.PendingOperations()
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, wantAt, ops[0].ExecutableAt)
	require.NoError(t, l.ExecuteOperation(authority, ownerIdx))
}

func TestCancelOperation(t *testing.T) {
	env := newTestEnv(t, 5)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpChangeOwner, testAddr(0x10).Bytes())
	require.NoError(t, err)

	assert.True(t, errors.Is(l.CancelOperation(depositor, index), rbxerrors.ErrGUnauthorized))
	require.NoError(t, l.CancelOperation(authority, index))

	ops, err := l.PendingOperations()
	require.NoError(t, err)
	assert.Empty(t, ops)

	// Owner is unchanged.
	state, err := l.State()
	require.NoError(t, err)
	assert.Equal(t, owner, state.Owner)
}

func TestOperationIndexBounds(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	assert.True(t, errors.Is(l.ExecuteOperation(authority, 0), rbxerrors.ErrGInvalidOperationIndex))
	assert.True(t, errors.Is(l.CancelOperation(authority, 0), rbxerrors.ErrGInvalidOperationIndex))
	assert.True(t, errors.Is(l.ExecuteOperation(authority, -1), rbxerrors.ErrGInvalidOperationIndex))
}

func TestIndexShiftAfterRemoval(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	_, err := l.QueueOperation(authority, types.OpChangeOwner, testAddr(0x10).Bytes())
	require.NoError(t, err)
	_, err = l.QueueOperation(authority, types.OpSetTimelockDelay, common.Uint64ToBytes(60))
	require.NoError(t, err)

	// Removing index 0 shifts the delay change down to index 0.
	require.NoError(t, l.CancelOperation(authority, 0))
	ops, err := l.PendingOperations()
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, types.OpSetTimelockDelay, ops[0].Kind)

	require.NoError(t, l.ExecuteOperation(authority, 0))
	state, err := l.State()
	require.NoError(t, err)
	assert.Equal(t, int64(60), state.TimelockDelaySeconds)
}

func TestChangeAuthorizationKey(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	_, err := l.Deposit(asset, 1_000_000, depositor)
	require.NoError(t, err)

	newKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	newSigner := common.EthAddress(crypto.PubkeyToAddress(newKey.PublicKey))

	index, err := l.QueueOperation(authority, types.OpChangeAuthorizationKey, newSigner.Bytes())
	require.NoError(t, err)
	require.NoError(t, l.ExecuteOperation(authority, index))

	state, err := l.State()
	require.NoError(t, err)
	assert.True(t, state.AuthorizationKey.Equal(newSigner))

	// Signatures by the old key stop verifying.
	oldSig := env.sign(t, 1, asset, beneficiary, 100)
	err = l.Withdraw(1, asset, beneficiary, 100, oldSig)
	assert.True(t, errors.Is(err, rbxerrors.ErrWInvalidSignature))

	// The signing domain is unchanged; only the expected signer moved.
	newSig, err := verify.SignWithdrawal(newKey, env.domain, 1, asset, beneficiary, 100)
	require.NoError(t, err)
	require.NoError(t, l.Withdraw(1, asset, beneficiary, 100, newSig))
}

func TestChangeAuthorizationKeyRejectsZero(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpChangeAuthorizationKey, make([]byte, 20))
	require.NoError(t, err)
	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGInvalidSigner))
}

func TestAddAndRemoveAuthority(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger
	second := testAddr(0x20)

	index, err := l.QueueOperation(authority, types.OpAddTimelockAuthority, second.Bytes())
	require.NoError(t, err)
	require.NoError(t, l.ExecuteOperation(authority, index))

	state, err := l.State()
	require.NoError(t, err)
	assert.True(t, state.IsTimelockAuthority(second))

	// The new authority can act immediately.
	index, err = l.QueueOperation(second, types.OpRemoveTimelockAuthority, authority.Bytes())
	require.NoError(t, err)
	require.NoError(t, l.ExecuteOperation(second, index))

	state, err = l.State()
	require.NoError(t, err)
	assert.False(t, state.IsTimelockAuthority(authority))

	// Removing the only remaining authority is refused.
	index, err = l.QueueOperation(second, types.OpRemoveTimelockAuthority, second.Bytes())
	require.NoError(t, err)
	err = l.ExecuteOperation(second, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGCannotRemoveLastAuthority))
}

func TestAddAuthorityValidation(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpAddTimelockAuthority, make([]byte, 32))
	require.NoError(t, err)
	assert.True(t, errors.Is(l.ExecuteOperation(authority, index), rbxerrors.ErrGInvalidAuthority))
	require.NoError(t, l.CancelOperation(authority, index))

	index, err = l.QueueOperation(authority, types.OpAddTimelockAuthority, authority.Bytes())
	require.NoError(t, err)
	assert.True(t, errors.Is(l.ExecuteOperation(authority, index), rbxerrors.ErrGAuthorityAlreadyExists))
	require.NoError(t, l.CancelOperation(authority, index))

	// Fill the set to its bound, then one more.
	for i := 0; i < types.MaxAuthorities-1; i++ {
		index, err = l.QueueOperation(authority, types.OpAddTimelockAuthority, testAddr(byte(0x30+i)).Bytes())
		require.NoError(t, err)
		require.NoError(t, l.ExecuteOperation(authority, index))
	}
	index, err = l.QueueOperation(authority, types.OpAddTimelockAuthority, testAddr(0x7f).Bytes())
	require.NoError(t, err)
	assert.True(t, errors.Is(l.ExecuteOperation(authority, index), rbxerrors.ErrGTooManyAuthorities))
}

func TestRemoveUnknownAuthority(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	// Membership resolves before the last-authority guard: removing an
	// address that was never an authority reports AuthorityNotFound even
	// when only one authority is registered.
	index, err := l.QueueOperation(authority, types.OpRemoveTimelockAuthority, testAddr(0x77).Bytes())
	require.NoError(t, err)
	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGAuthorityNotFound))

	index, err = l.QueueOperation(authority, types.OpAddTimelockAuthority, testAddr(0x20).Bytes())
	require.NoError(t, err)
	require.NoError(t, l.ExecuteOperation(authority, index))

	index, err = l.QueueOperation(authority, types.OpRemoveTimelockAuthority, testAddr(0x77).Bytes())
	require.NoError(t, err)
	err = l.ExecuteOperation(authority, index)
	assert.True(t, errors.Is(err, rbxerrors.ErrGAuthorityNotFound))
}

func TestSupportAssetViaTimelock(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	payload := append(wrapped.Bytes(), common.Uint64ToBytes(350)...)
	index, err := l.QueueOperation(authority, types.OpSupportAsset, payload)
	require.NoError(t, err)
	require.NoError(t, l.ExecuteOperation(authority, index))

	state, err := l.State()
	require.NoError(t, err)
	assert.True(t, state.IsSupportedAsset(wrapped))
	min, ok := state.MinimumDepositFor(wrapped)
	assert.True(t, ok)
	assert.Equal(t, uint64(350), min)

	_, err = l.Deposit(wrapped, 349, depositor)
	assert.True(t, errors.Is(err, rbxerrors.ErrLBelowMinimumDeposit))
}

func TestFailedExecutionKeepsOperationQueued(t *testing.T) {
	env := newTestEnv(t, 0)
	l := env.ledger

	index, err := l.QueueOperation(authority, types.OpChangeAuthorizationKey, make([]byte, 20))
	require.NoError(t, err)
	require.Error(t, l.ExecuteOperation(authority, index))

	ops, err := l.PendingOperations()
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}
