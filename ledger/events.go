package ledger

import (
	"encoding/binary"

	"github.com/alex-sumner/solana-rabbitx-contract/storage"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
)

// The event journal is the program's observable output: one 88-byte payload
// per completed deposit, stake or withdrawal, appended inside the same
// transaction as the operation so the journal never shows an aborted call.

var eventSeqKey = []byte("evtseq")

func eventKey(seq uint64) []byte {
	key := make([]byte, 4+8)
	copy(key, "evt:")
	binary.BigEndian.PutUint64(key[4:], seq)
	return key
}

func emitEvent(tx *storage.Tx, ev types.Event) error {
	seq := uint64(0)
	data, ok, err := tx.Get(eventSeqKey)
	if err != nil {
		return err
	}
	if ok {
		seq = binary.BigEndian.Uint64(data)
	}
	tx.Put(eventKey(seq), ev.Encode())

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, seq+1)
	tx.Put(eventSeqKey, next)
	return nil
}

// EventCount returns the number of emitted events.
func (l *Ledger) EventCount() (uint64, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	data, ok, err := tx.Get(eventSeqKey)
	if err != nil || !ok {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

// Events returns up to limit events starting at journal position from.
func (l *Ledger) Events(from uint64, limit int) ([]types.Event, error) {
	tx := l.store.Begin()
	defer tx.Discard()

	count, err := l.EventCount()
	if err != nil {
		return nil, err
	}
	var events []types.Event
	for seq := from; seq < count && len(events) < limit; seq++ {
		data, ok, err := tx.Get(eventKey(seq))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ev, err := types.DecodeEvent(data)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
