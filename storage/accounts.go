package storage

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// AccountSnapshot is the persisted form of the contract account: its native
// balance and the serialized data cell (BOC). A restarted service resumes
// the deal from it; destruction removes it.
type AccountSnapshot struct {
	Address string
	Balance *big.Int
	Data    []byte
}

func accountKey(addr string) []byte {
	return []byte("acct:" + addr)
}

// SaveSnapshot RLP-encodes and stores the snapshot under its address key.
func SaveSnapshot(db Database, snap *AccountSnapshot) error {
	if db == nil {
		return fmt.Errorf("storage: nil database")
	}
	if snap == nil || snap.Address == "" {
		return fmt.Errorf("storage: snapshot requires an address")
	}
	record := snap
	if record.Balance == nil {
		clone := *snap
		clone.Balance = big.NewInt(0)
		record = &clone
	}
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	return db.Put(accountKey(snap.Address), encoded)
}

// LoadSnapshot fetches and decodes the snapshot for the given address. The
// boolean reports whether one exists.
func LoadSnapshot(db Database, addr string) (*AccountSnapshot, bool, error) {
	if db == nil {
		return nil, false, fmt.Errorf("storage: nil database")
	}
	raw, err := db.Get(accountKey(addr))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	snap := new(AccountSnapshot)
	if err := rlp.DecodeBytes(raw, snap); err != nil {
		return nil, false, fmt.Errorf("storage: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes the snapshot for the given address, if any.
func DeleteSnapshot(db Database, addr string) error {
	if db == nil {
		return fmt.Errorf("storage: nil database")
	}
	return db.Delete(accountKey(addr))
}
