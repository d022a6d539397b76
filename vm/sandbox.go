// Package vm provides the host side of the contract's execution model: a
// deterministic, run-to-completion, single-account environment that credits
// inbound value, applies engine outcomes atomically, resolves send modes and
// performs the destroy-on-settlement side effect exactly once.
package vm

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"tonescrow/contract/escrow"
	"tonescrow/storage"
)

// ErrAccountDestroyed rejects messages delivered after settlement removed
// the account.
var ErrAccountDestroyed = errors.New("vm: account destroyed")

// SentMessage is an outbound message after send-mode resolution: Value is
// the concrete amount leaving the account, carry-all already applied.
type SentMessage struct {
	From  *address.Address
	To    *address.Address
	Value *big.Int
	Mode  uint8
	Body  *cell.Cell
}

// Observer receives one callback per delivered message with the operation
// label and the outcome ("ok" or the exit-code label).
type Observer func(op, outcome string)

// Sandbox hosts a single escrow contract account. Message delivery is
// serialized; each message either commits fully or leaves the account
// untouched, mirroring the chain's atomic rollback.
type Sandbox struct {
	mu      sync.Mutex
	addr    *address.Address
	balance *big.Int
	data    *cell.Cell
	live    bool

	engine  *escrow.Engine
	outbox  []SentMessage
	observe Observer

	db storage.Database

	// staged state visible to the engine during one delivery
	stagedBalance *big.Int
	stagedData    *cell.Cell
}

// NewSandbox deploys a deal into a fresh account at the given address with
// the given initial native balance.
func NewSandbox(addr *address.Address, deal *escrow.Deal, balance *big.Int) (*Sandbox, error) {
	data, err := escrow.EncodeDeal(deal)
	if err != nil {
		return nil, fmt.Errorf("vm: deploy: %w", err)
	}
	return newSandbox(addr, data, balance)
}

// Restore rebuilds a sandbox from a persisted account snapshot.
func Restore(addr *address.Address, snap *storage.AccountSnapshot) (*Sandbox, error) {
	if snap == nil {
		return nil, fmt.Errorf("vm: nil snapshot")
	}
	data, err := cell.FromBOC(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("vm: restore data cell: %w", err)
	}
	return newSandbox(addr, data, snap.Balance)
}

func newSandbox(addr *address.Address, data *cell.Cell, balance *big.Int) (*Sandbox, error) {
	if addr == nil {
		return nil, fmt.Errorf("vm: account address required")
	}
	if _, err := escrow.DecodeDeal(data); err != nil {
		return nil, fmt.Errorf("vm: account data: %w", err)
	}
	bal := big.NewInt(0)
	if balance != nil {
		bal = new(big.Int).Set(balance)
	}
	s := &Sandbox{addr: addr, balance: bal, data: data, live: true}
	s.engine = escrow.NewEngine(addr)
	s.engine.SetState(s)
	return s, nil
}

// Engine exposes the hosted state machine for read-only queries and emitter
// wiring.
func (s *Sandbox) Engine() *escrow.Engine { return s.engine }

// SetObserver installs a per-delivery metrics callback.
func (s *Sandbox) SetObserver(obs Observer) { s.observe = obs }

// AttachStore persists the account snapshot after every committed delivery
// and removes it on destruction.
func (s *Sandbox) AttachStore(db storage.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = db
	return s.persistLocked()
}

// Address returns the hosted account's address.
func (s *Sandbox) Address() *address.Address { return s.addr }

// Live reports whether the account still exists.
func (s *Sandbox) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Info returns the current deal record. Safe for concurrent use with
// Deliver.
func (s *Sandbox) Info() (*escrow.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return nil, ErrAccountDestroyed
	}
	return escrow.DecodeDeal(s.data)
}

// State returns the deal's funding state. Safe for concurrent use with
// Deliver.
func (s *Sandbox) State() (escrow.DealState, error) {
	deal, err := s.Info()
	if err != nil {
		return 0, err
	}
	return deal.State, nil
}

// GuarantorRoyalty returns the royalty the guarantor would receive on
// approval with the current parameters.
func (s *Sandbox) GuarantorRoyalty() (*big.Int, error) {
	deal, err := s.Info()
	if err != nil {
		return nil, err
	}
	return escrow.RoyaltyAmount(deal.Amount, deal.Royalty), nil
}

// NativeBalance returns the committed account balance.
func (s *Sandbox) NativeBalance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.balance)
}

// Balance reports the staged balance to the engine during a delivery, the
// inbound value already credited. It is part of the engine's state view and
// must only be called while a delivery is in flight.
func (s *Sandbox) Balance() *big.Int {
	if s.stagedBalance != nil {
		return new(big.Int).Set(s.stagedBalance)
	}
	return new(big.Int).Set(s.balance)
}

// LoadDeal decodes the staged data cell for the engine.
func (s *Sandbox) LoadDeal() (*escrow.Deal, error) {
	data := s.stagedData
	if data == nil {
		data = s.data
	}
	return escrow.DecodeDeal(data)
}

// StoreDeal stages the encoded deal; it becomes visible only when the
// delivery commits.
func (s *Sandbox) StoreDeal(deal *escrow.Deal) error {
	encoded, err := escrow.EncodeDeal(deal)
	if err != nil {
		return err
	}
	s.stagedData = encoded
	return nil
}

// Deliver runs one inbound message through the engine. On failure the
// account is left exactly as before, including its balance: the attached
// value bounces back with the aborted message.
func (s *Sandbox) Deliver(msg *escrow.Message) (*escrow.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return nil, ErrAccountDestroyed
	}
	s.stagedBalance = new(big.Int).Set(s.balance)
	if msg != nil && msg.Value != nil {
		s.stagedBalance.Add(s.stagedBalance, msg.Value)
	}
	s.stagedData = s.data
	defer func() {
		s.stagedBalance = nil
		s.stagedData = nil
	}()

	outcome, err := s.engine.HandleMessage(msg)
	if err != nil {
		s.report(msg, err)
		return nil, err
	}

	remaining := new(big.Int).Set(s.stagedBalance)
	for _, t := range outcome.Transfers {
		value := big.NewInt(0)
		if t.Value != nil {
			value.Set(t.Value)
		}
		if t.Mode&escrow.ModeCarryAllBalance != 0 {
			value.Set(remaining)
		}
		if value.Cmp(remaining) > 0 {
			return nil, fmt.Errorf("vm: transfer exceeds balance: %v > %v", value, remaining)
		}
		remaining.Sub(remaining, value)
		s.outbox = append(s.outbox, SentMessage{
			From:  s.addr,
			To:    t.To,
			Value: value,
			Mode:  t.Mode,
			Body:  t.Body,
		})
	}

	if outcome.Destroyed {
		s.live = false
		s.balance = big.NewInt(0)
		s.data = nil
		if s.db != nil {
			if err := storage.DeleteSnapshot(s.db, s.addr.String()); err != nil {
				return nil, fmt.Errorf("vm: drop snapshot: %w", err)
			}
		}
	} else {
		s.balance = remaining
		s.data = s.stagedData
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
	}
	if s.observe != nil {
		s.observe(opLabel(msg, outcome.Op), "ok")
	}
	return outcome, nil
}

// Outbox drains and returns the messages sent since the last call.
func (s *Sandbox) Outbox() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outbox
	s.outbox = nil
	return out
}

func (s *Sandbox) persistLocked() error {
	if s.db == nil || !s.live {
		return nil
	}
	snap := &storage.AccountSnapshot{
		Address: s.addr.String(),
		Balance: new(big.Int).Set(s.balance),
		Data:    s.data.ToBOC(),
	}
	if err := storage.SaveSnapshot(s.db, snap); err != nil {
		return fmt.Errorf("vm: persist snapshot: %w", err)
	}
	return nil
}

func (s *Sandbox) report(msg *escrow.Message, err error) {
	if s.observe == nil {
		return
	}
	outcome := "error"
	if code, ok := escrow.ExitCodeOf(err); ok {
		outcome = code.String()
	}
	s.observe(opLabel(msg, 0), outcome)
}

func opLabel(msg *escrow.Message, op uint32) string {
	if op != 0 {
		return escrow.OpName(op)
	}
	if msg == nil || msg.Body == nil {
		return "plain_transfer"
	}
	s := msg.Body.BeginParse()
	tag, err := s.LoadUInt(32)
	if err != nil {
		return "unknown"
	}
	return escrow.OpName(uint32(tag))
}
