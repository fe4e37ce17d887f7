package ledger

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
)

// SupportAsset adds asset to the supported list with the given minimum
// deposit, or updates the minimum if the asset is already supported. Any
// timelock authority may call this directly; the queued-operation path
// reaches the same change after the delay.
func (l *Ledger) SupportAsset(caller common.Address, asset common.Address, minimum uint64) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if !state.IsTimelockAuthority(caller) {
		return rbxerrors.ErrGUnauthorized
	}
	if err := applySupportAsset(state, asset, minimum); err != nil {
		return err
	}

	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info(log.LedgerModule, "asset supported", "asset", asset.String(), "minimum", minimum)
	return nil
}

// UnsupportAsset removes asset from the supported list and drops its
// minimum deposit entry. Custody balances already held in the asset remain
// withdrawable.
func (l *Ledger) UnsupportAsset(caller common.Address, asset common.Address) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if !state.IsTimelockAuthority(caller) {
		return rbxerrors.ErrGUnauthorized
	}

	found := false
	for i, a := range state.SupportedAssets {
		if a == asset {
			state.SupportedAssets = append(state.SupportedAssets[:i], state.SupportedAssets[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", rbxerrors.ErrLAssetNotSupported, asset.String())
	}
	state.RemoveMinimumDeposit(asset)

	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info(log.LedgerModule, "asset unsupported", "asset", asset.String())
	return nil
}

func applySupportAsset(state *types.LedgerState, asset common.Address, minimum uint64) error {
	if asset.IsZero() {
		return rbxerrors.ErrLInvalidAsset
	}
	if state.IsSupportedAsset(asset) {
		state.SetMinimumDeposit(asset, minimum)
		return nil
	}
	if len(state.SupportedAssets) >= types.MaxSupportedAssets {
		return rbxerrors.ErrLTooManyAssets
	}
	state.SupportedAssets = append(state.SupportedAssets, asset)
	state.SetMinimumDeposit(asset, minimum)
	return nil
}
