package ledger

import (
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/storage"
)

// Balance bookkeeping for token and native holdings. These entries mirror
// the host ledger's token accounts: balances the program reads before a
// transfer and mutates inside the same transaction as the rest of the
// operation.

func tokenBalanceKey(asset common.Address, holder common.Address) []byte {
	key := append([]byte("tok:"), asset.Bytes()...)
	return append(key, holder.Bytes()...)
}

func nativeBalanceKey(holder common.Address) []byte {
	return append([]byte("nat:"), holder.Bytes()...)
}

// Staked value is held by the same custody authority but in a separate
// sub-custody book, so staked and deposited holdings never mix.
func stakeBalanceKey(asset common.Address, holder common.Address) []byte {
	key := append([]byte("stk:"), asset.Bytes()...)
	return append(key, holder.Bytes()...)
}

func nativeStakeBalanceKey(holder common.Address) []byte {
	return append([]byte("nst:"), holder.Bytes()...)
}

func getBalance(tx *storage.Tx, key []byte) (uint64, error) {
	data, ok, err := tx.Get(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return common.BytesToUint64(data), nil
}

func putBalance(tx *storage.Tx, key []byte, amount uint64) {
	tx.Put(key, common.Uint64ToBytes(amount))
}

// moveValue debits fromKey and credits toKey by amount within tx.
func moveValue(tx *storage.Tx, fromKey []byte, toKey []byte, amount uint64) error {
	fromBalance, err := getBalance(tx, fromKey)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: have %d, need %d", rbxerrors.ErrLInsufficientFunds, fromBalance, amount)
	}
	toBalance, err := getBalance(tx, toKey)
	if err != nil {
		return err
	}
	putBalance(tx, fromKey, fromBalance-amount)
	putBalance(tx, toKey, toBalance+amount)
	return nil
}

// transferToken moves amount of asset from one holder to another within tx.
func transferToken(tx *storage.Tx, asset common.Address, from common.Address, to common.Address, amount uint64) error {
	return moveValue(tx, tokenBalanceKey(asset, from), tokenBalanceKey(asset, to), amount)
}

// transferNative moves amount of native coin from one holder to another within tx.
func transferNative(tx *storage.Tx, from common.Address, to common.Address, amount uint64) error {
	return moveValue(tx, nativeBalanceKey(from), nativeBalanceKey(to), amount)
}

// TokenBalance reads a holder's balance of an asset.
func (l *Ledger) TokenBalance(asset common.Address, holder common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	return getBalance(tx, tokenBalanceKey(asset, holder))
}

// NativeBalance reads a holder's native coin balance.
func (l *Ledger) NativeBalance(holder common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	return getBalance(tx, nativeBalanceKey(holder))
}

// StakedBalance reads the staked sub-custody balance of an asset for a holder.
func (l *Ledger) StakedBalance(asset common.Address, holder common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	return getBalance(tx, stakeBalanceKey(asset, holder))
}

// StakedNativeBalance reads the staked native sub-custody balance for a holder.
func (l *Ledger) StakedNativeBalance(holder common.Address) (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	return getBalance(tx, nativeStakeBalanceKey(holder))
}

// CreditToken credits a holder with asset units outside any program
// operation. This is host-ledger bookkeeping (a mint or an inbound
// transfer), not a program entry point.
func (l *Ledger) CreditToken(asset common.Address, holder common.Address, amount uint64) error {
	tx := l.store.Begin()
	defer tx.Discard()
	balance, err := getBalance(tx, tokenBalanceKey(asset, holder))
	if err != nil {
		return err
	}
	putBalance(tx, tokenBalanceKey(asset, holder), balance+amount)
	return tx.Commit()
}

// CreditNative credits a holder with native coin outside any program operation.
func (l *Ledger) CreditNative(holder common.Address, amount uint64) error {
	tx := l.store.Begin()
	defer tx.Discard()
	balance, err := getBalance(tx, nativeBalanceKey(holder))
	if err != nil {
		return err
	}
	putBalance(tx, nativeBalanceKey(holder), balance+amount)
	return tx.Commit()
}
