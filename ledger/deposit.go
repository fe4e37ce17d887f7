package ledger

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
)

// Deposit moves amount of asset from the depositor into token custody.
// Returns the assigned deposit sequence number.
func (l *Ledger) Deposit(asset common.Address, amount uint64, depositor common.Address) (uint64, error) {
	return l.DepositFor(asset, amount, depositor, depositor)
}

// DepositFor is the proxy variant: the depositor pays, the beneficiary is
// recorded in the emitted event.
func (l *Ledger) DepositFor(asset common.Address, amount uint64, depositor common.Address, beneficiary common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return 0, err
	}
	if err := acquireGuard(state); err != nil {
		return 0, err
	}
	if !state.IsSupportedAsset(asset) {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, asset.String())
	}
	minDeposit, ok := state.MinimumDepositFor(asset)
	if !ok {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, asset.String())
	}
	if amount < minDeposit {
		return 0, fmt.Errorf("%w: %d < %d", rbxerrors.ErrLBelowMinimumDeposit, amount, minDeposit)
	}

	seq := state.NextDepositSeq
	state.NextDepositSeq++

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(TokenAuthoritySeed)}, state.TokenCustodyBump, l.programID)
	if err != nil {
		return 0, err
	}
	if err := transferToken(tx, asset, depositor, custody, amount); err != nil {
		return 0, err
	}
	if err := emitEvent(tx, types.NewDepositEvent(seq, beneficiary, amount, asset)); err != nil {
		return 0, err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info(log.LedgerModule, "deposit",
		"id", types.DepositID(seq),
		"beneficiary", beneficiary.String(),
		"amount", amount,
		"asset", asset.String())
	return seq, nil
}

// DepositNative moves amount of native coin from the depositor into native
// custody. wrappedAsset identifies the wrapped form of the native coin
// under which the minimum deposit is registered and events are reported.
func (l *Ledger) DepositNative(wrappedAsset common.Address, amount uint64, depositor common.Address) (uint64, error) {
	return l.DepositNativeFor(wrappedAsset, amount, depositor, depositor)
}

// DepositNativeFor is the proxy variant of DepositNative.
func (l *Ledger) DepositNativeFor(wrappedAsset common.Address, amount uint64, depositor common.Address, beneficiary common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return 0, err
	}
	if err := acquireGuard(state); err != nil {
		return 0, err
	}
	minDeposit, ok := state.MinimumDepositFor(wrappedAsset)
	if !ok {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, wrappedAsset.String())
	}
	if amount < minDeposit {
		return 0, fmt.Errorf("%w: %d < %d", rbxerrors.ErrLBelowMinimumDeposit, amount, minDeposit)
	}

	seq := state.NextDepositSeq
	state.NextDepositSeq++

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(NativeAccountSeed)}, state.NativeCustodyBump, l.programID)
	if err != nil {
		return 0, err
	}
	if err := transferNative(tx, depositor, custody, amount); err != nil {
		return 0, err
	}
	if err := emitEvent(tx, types.NewDepositEvent(seq, beneficiary, amount, wrappedAsset)); err != nil {
		return 0, err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info(log.LedgerModule, "deposit native",
		"id", types.DepositID(seq),
		"beneficiary", beneficiary.String(),
		"amount", amount)
	return seq, nil
}

// Stake moves amount of asset from the staker into the staking sub-custody.
// Returns the assigned stake sequence number. There is no unstake entry
// point; staked value is released through the signed withdrawal path.
func (l *Ledger) Stake(asset common.Address, amount uint64, staker common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return 0, err
	}
	if err := acquireGuard(state); err != nil {
		return 0, err
	}
	if !state.IsSupportedAsset(asset) {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, asset.String())
	}
	minDeposit, ok := state.MinimumDepositFor(asset)
	if !ok {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, asset.String())
	}
	if amount < minDeposit {
		return 0, fmt.Errorf("%w: %d < %d", rbxerrors.ErrLBelowMinimumDeposit, amount, minDeposit)
	}

	seq := state.NextStakeSeq
	state.NextStakeSeq++

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(TokenAuthoritySeed)}, state.TokenCustodyBump, l.programID)
	if err != nil {
		return 0, err
	}
	if err := moveValue(tx, tokenBalanceKey(asset, staker), stakeBalanceKey(asset, custody), amount); err != nil {
		return 0, err
	}
	if err := emitEvent(tx, types.NewStakeEvent(seq, staker, amount, asset)); err != nil {
		return 0, err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info(log.LedgerModule, "stake",
		"id", types.StakeID(seq),
		"staker", staker.String(),
		"amount", amount,
		"asset", asset.String())
	return seq, nil
}

// StakeNative moves amount of native coin from the staker into the native
// staking sub-custody.
func (l *Ledger) StakeNative(wrappedAsset common.Address, amount uint64, staker common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return 0, err
	}
	if err := acquireGuard(state); err != nil {
		return 0, err
	}
	minDeposit, ok := state.MinimumDepositFor(wrappedAsset)
	if !ok {
		return 0, fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, wrappedAsset.String())
	}
	if amount < minDeposit {
		return 0, fmt.Errorf("%w: %d < %d", rbxerrors.ErrLBelowMinimumDeposit, amount, minDeposit)
	}

	seq := state.NextStakeSeq
	state.NextStakeSeq++

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(NativeAccountSeed)}, state.NativeCustodyBump, l.programID)
	if err != nil {
		return 0, err
	}
	if err := moveValue(tx, nativeBalanceKey(staker), nativeStakeBalanceKey(custody), amount); err != nil {
		return 0, err
	}
	if err := emitEvent(tx, types.NewStakeEvent(seq, staker, amount, wrappedAsset)); err != nil {
		return 0, err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info(log.LedgerModule, "stake native",
		"id", types.StakeID(seq),
		"staker", staker.String(),
		"amount", amount)
	return seq, nil
}

// acquireGuard takes the reentrancy flag. The flag must be Unlocked on
// entry to any value-moving operation; the enclosing transaction unwinds a
// Locked flag together with every other write if the operation fails.
func acquireGuard(state *types.LedgerState) error {
	if state.ReentrancyFlag != types.Unlocked {
		return rbxerrors.ErrLReentrancyDetected
	}
	state.ReentrancyFlag = types.Locked
	return nil
}

func releaseGuard(state *types.LedgerState) {
	state.ReentrancyFlag = types.Unlocked
}
