package storage

import (
	"errors"
	"math/big"
	"testing"
)

func TestMemDBPutGetDelete(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v" {
		t.Fatalf("unexpected value: %q", value)
	}
	// returned slices must not alias the stored value
	value[0] = 'x'
	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "v" {
		t.Fatalf("stored value mutated through returned slice")
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()

	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v" {
		t.Fatalf("unexpected value: %q", value)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	snap := &AccountSnapshot{
		Address: "EQtest",
		Balance: big.NewInt(1_020_000_000),
		Data:    []byte{0xB5, 0xEE, 0x9C, 0x72},
	}
	if err := SaveSnapshot(db, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := LoadSnapshot(db, "EQtest")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if loaded.Balance.Cmp(snap.Balance) != 0 {
		t.Fatalf("balance mismatch: %v", loaded.Balance)
	}
	if string(loaded.Data) != string(snap.Data) {
		t.Fatalf("data mismatch")
	}

	if _, ok, err := LoadSnapshot(db, "EQother"); err != nil || ok {
		t.Fatalf("unknown address must report absence, got ok=%v err=%v", ok, err)
	}
	if err := DeleteSnapshot(db, "EQtest"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := LoadSnapshot(db, "EQtest"); ok {
		t.Fatalf("snapshot must be gone after delete")
	}
}

func TestSaveSnapshotValidation(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if err := SaveSnapshot(db, nil); err == nil {
		t.Fatalf("expected error for nil snapshot")
	}
	if err := SaveSnapshot(db, &AccountSnapshot{}); err == nil {
		t.Fatalf("expected error for snapshot without address")
	}
	// nil balance normalises to zero
	if err := SaveSnapshot(db, &AccountSnapshot{Address: "EQzero", Data: []byte{1}}); err != nil {
		t.Fatalf("save with nil balance: %v", err)
	}
	loaded, ok, err := LoadSnapshot(db, "EQzero")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.Balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %v", loaded.Balance)
	}
}
