package ledger

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/storage"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
	"github.com/alex-sumner/solana-rabbitx-contract/verify"
)

// Withdraw releases amount of asset from token custody to the beneficiary.
// The request must carry a signature over (id, asset, beneficiary, amount)
// by the current authorization key, and the identifier must not have been
// processed before. Anyone may submit a correctly signed withdrawal.
func (l *Ledger) Withdraw(id uint64, asset common.Address, beneficiary common.Address, amount uint64, sig verify.Signature) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if err := acquireGuard(state); err != nil {
		return err
	}
	if amount == 0 {
		return rbxerrors.ErrLWrongAmount
	}

	// No supported-asset check: unsupporting an asset stops new deposits
	// but custody balances already held in it stay withdrawable.
	domain := l.domainSeparator(state)
	if err := verify.VerifyWithdrawal(domain, id, asset, beneficiary, amount, sig, state.AuthorizationKey); err != nil {
		return err
	}
	if err := l.markWithdrawalProcessed(tx, id); err != nil {
		return err
	}

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(TokenAuthoritySeed)}, state.TokenCustodyBump, l.programID)
	if err != nil {
		return err
	}
	if err := transferToken(tx, asset, custody, beneficiary, amount); err != nil {
		return err
	}
	if err := emitEvent(tx, types.NewWithdrawalEvent(id, beneficiary, amount, asset)); err != nil {
		return err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.LedgerModule, "withdrawal",
		"id", id,
		"beneficiary", beneficiary.String(),
		"amount", amount,
		"asset", asset.String())
	return nil
}

// WithdrawNative releases amount of native coin from native custody to the
// beneficiary. The signature covers the wrapped asset address, which is
// also what the emitted event reports.
func (l *Ledger) WithdrawNative(id uint64, wrappedAsset common.Address, beneficiary common.Address, amount uint64, sig verify.Signature) error {
	tx := l.store.Begin()
	defer tx.Discard()

	state, err := l.loadState(tx)
	if err != nil {
		return err
	}
	if err := acquireGuard(state); err != nil {
		return err
	}
	if amount == 0 {
		return rbxerrors.ErrLWrongAmount
	}

	domain := l.domainSeparator(state)
	if err := verify.VerifyWithdrawal(domain, id, wrappedAsset, beneficiary, amount, sig, state.AuthorizationKey); err != nil {
		return err
	}
	if err := l.markWithdrawalProcessed(tx, id); err != nil {
		return err
	}

	custody, err := common.CreateDerivedAddress([][]byte{[]byte(NativeAccountSeed)}, state.NativeCustodyBump, l.programID)
	if err != nil {
		return err
	}
	if err := transferNative(tx, custody, beneficiary, amount); err != nil {
		return err
	}
	if err := emitEvent(tx, types.NewWithdrawalEvent(id, beneficiary, amount, wrappedAsset)); err != nil {
		return err
	}

	releaseGuard(state)
	l.saveState(tx, state)
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.LedgerModule, "withdrawal native",
		"id", id,
		"beneficiary", beneficiary.String(),
		"amount", amount)
	return nil
}

// domainSeparator returns the cached signing domain, computing and caching
// it on first use. The descriptor binds the program instance's state
// address and is never recomputed afterwards.
func (l *Ledger) domainSeparator(state *types.LedgerState) common.Hash {
	if state.DomainDescriptor != nil {
		return *state.DomainDescriptor
	}
	domain := l.SigningDomain()
	state.DomainDescriptor = &domain
	return domain
}

// markWithdrawalProcessed flips the bitmap bit for id in its bucket record,
// creating the record on first touch. A set bit is a replay.
func (l *Ledger) markWithdrawalProcessed(tx *storage.Tx, id uint64) error {
	recordAddr, err := l.WithdrawalRecordAddress(id)
	if err != nil {
		return err
	}
	key := accountKey(recordAddr)

	var record *types.WithdrawalRecord
	data, ok, err := tx.Get(key)
	if err != nil {
		return err
	}
	if ok {
		record, err = types.DecodeWithdrawalRecord(data)
		if err != nil {
			return err
		}
	} else {
		record = types.NewWithdrawalRecord(id)
	}

	if record.IsProcessed(id) {
		return fmt.Errorf("%w: id %d", rbxerrors.ErrWWithdrawalAlreadyProcessed, id)
	}
	record.MarkProcessed(id)
	tx.Put(key, record.Encode())
	return nil
}

// IsWithdrawalProcessed reports whether the given withdrawal identifier has
// already been consumed.
func (l *Ledger) IsWithdrawalProcessed(id uint64) (bool, error) {
	recordAddr, err := l.WithdrawalRecordAddress(id)
	if err != nil {
		return false, err
	}
	data, ok, err := l.store.Get(accountKey(recordAddr))
	if err != nil || !ok {
		return false, err
	}
	record, err := types.DecodeWithdrawalRecord(data)
	if err != nil {
		return false, err
	}
	return record.IsProcessed(id), nil
}
