package escrow

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"tonescrow/contract/jetton"
	"tonescrow/core/events"
	"tonescrow/core/types"
)

var (
	errNilState   = errors.New("escrow engine: state not configured")
	errNilSelf    = errors.New("escrow engine: contract address not configured")
	errNilMessage = errors.New("escrow engine: nil message")
)

// settlementFeeBudget is the native balance, in the smallest unit, that must
// remain spendable to pay outbound settlement message fees. Approve and
// cancel refuse to run below it so a retry after a top-up can succeed.
const settlementFeeBudget = 20_000_000

type engineState interface {
	LoadDeal() (*Deal, error)
	StoreDeal(*Deal) error
	// Balance is the contract's native balance with the inbound message
	// value already credited.
	Balance() *big.Int
}

type dealEvent struct {
	evt *types.Event
}

func (e dealEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e dealEvent) Event() *types.Event { return e.evt }

// Engine is the contract's message-handling state machine. It loads the deal
// record, classifies the inbound message, enforces the guard invariants and
// either mutates the record in place or returns the settlement outcome that
// destroys the account. All failures abort atomically with an ExitError; the
// host persists nothing on error.
type Engine struct {
	self    *address.Address
	state   engineState
	emitter events.Emitter
}

// NewEngine creates an engine for the contract deployed at the given
// address. Callers can override the emitter via SetEmitter.
func NewEngine(self *address.Address) *Engine {
	return &Engine{
		self:    self,
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(dealEvent{evt: event})
}

// HandleMessage dispatches one inbound message through the state machine and
// returns the resulting outcome. The returned error, when it wraps an
// ExitError, carries the numeric code surfaced on the chain's public record.
func (e *Engine) HandleMessage(msg *Message) (*Outcome, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.self == nil {
		return nil, errNilSelf
	}
	if msg == nil {
		return nil, errNilMessage
	}
	// Bounced settlement messages must not be mistaken for funding.
	if msg.Bounced {
		return &Outcome{}, nil
	}
	deal, err := e.state.LoadDeal()
	if err != nil {
		return nil, fmt.Errorf("escrow engine: load deal: %w", err)
	}

	if msg.Body == nil {
		return e.handleBuyerTransfer(deal, msg)
	}
	body := msg.Body.BeginParse()
	op, err := body.LoadUInt(32)
	if err != nil {
		return nil, exitf(ExitUnknownOperation, "unreadable operation tag")
	}
	switch uint32(op) {
	case OpBuyerTransfer:
		return e.handleBuyerTransfer(deal, msg)
	case jetton.OpTransferNotification:
		return e.handleTransferNotification(deal, msg, body)
	case OpApprove:
		return e.handleApprove(deal, msg)
	case OpCancel:
		return e.handleCancel(deal, msg)
	case OpTopUp:
		return e.handleTopUp(deal)
	case OpChangeWalletCode:
		return e.handleChangeWalletCode(deal, msg, body)
	default:
		return nil, exitf(ExitUnknownOperation, "operation 0x%x", op)
	}
}

// handleBuyerTransfer is the native-currency funding path, reached by a
// plain value transfer or the explicit buyerTransfer marker.
func (e *Engine) handleBuyerTransfer(deal *Deal, msg *Message) (*Outcome, error) {
	if deal.Asset.IsJetton() {
		return nil, exitf(ExitWrongAsset, "native value sent to a jetton deal")
	}
	if deal.State != DealInit {
		return nil, exitf(ExitWrongAsset, "deal already funded")
	}
	// Surplus over the deal amount is attributed to gas; only deficiency
	// rejects. The jetton path checks strict equality instead.
	if msg.Value == nil || msg.Value.Cmp(deal.Amount) < 0 {
		return nil, exitf(ExitIncorrectFundAmount, "got %v, need %v", msg.Value, deal.Amount)
	}
	deal.Buyer = msg.Sender
	deal.State = DealFunded
	if err := e.state.StoreDeal(deal); err != nil {
		return nil, fmt.Errorf("escrow engine: store deal: %w", err)
	}
	e.emit(NewFundedEvent(deal))
	return &Outcome{Op: OpBuyerTransfer}, nil
}

// handleTransferNotification is the jetton funding path. The notification
// must originate from the deal's deterministically derived wallet; anything
// else is treated as a spoof attempt.
func (e *Engine) handleTransferNotification(deal *Deal, msg *Message, body *cell.Slice) (*Outcome, error) {
	if !deal.Asset.IsJetton() {
		return nil, exitf(ExitWrongAsset, "jetton notification on a native deal")
	}
	if deal.State != DealInit {
		return nil, exitf(ExitWrongAsset, "deal already funded")
	}
	notification, err := jetton.ParseTransferNotification(body)
	if err != nil {
		return nil, exitf(ExitIncorrectJetton, "malformed notification: %v", err)
	}
	expected, err := jetton.WalletAddress(e.self, deal.Asset.Minter, deal.Asset.WalletCode)
	if err != nil {
		return nil, fmt.Errorf("escrow engine: derive wallet: %w", err)
	}
	if !addrEqual(msg.Sender, expected) {
		return nil, exitf(ExitIncorrectJetton, "notification from %v, expected wallet %v", msg.Sender, expected)
	}
	if notification.Amount == nil || notification.Amount.Cmp(deal.Amount) != 0 {
		return nil, exitf(ExitIncorrectFundAmount, "got %v, need %v", notification.Amount, deal.Amount)
	}
	// The buyer is the original sender embedded in the notification, not
	// the wallet contract that forwarded it.
	deal.Buyer = notification.Sender
	deal.State = DealFunded
	if err := e.state.StoreDeal(deal); err != nil {
		return nil, fmt.Errorf("escrow engine: store deal: %w", err)
	}
	e.emit(NewFundedEvent(deal))
	return &Outcome{Op: jetton.OpTransferNotification}, nil
}

// guardResolution enforces the shared approve/cancel preconditions: only the
// guarantor may resolve, only a funded deal resolves, and settlement fees
// must be covered before any mutation.
func (e *Engine) guardResolution(deal *Deal, msg *Message) error {
	if !addrEqual(msg.Sender, deal.Guarantor) {
		return exitf(ExitIncorrectGuarantor, "sender is not the guarantor")
	}
	if deal.State != DealFunded {
		return exitf(ExitIncorrectGuarantor, "deal not funded")
	}
	spendable := new(big.Int).Set(e.state.Balance())
	if !deal.Asset.IsJetton() {
		// The funded native amount is logically reserved for settlement.
		spendable.Sub(spendable, deal.Amount)
	}
	if spendable.Cmp(big.NewInt(settlementFeeBudget)) < 0 {
		return exitf(ExitLowFeeBalance, "spendable %v below fee budget %d", spendable, settlementFeeBudget)
	}
	return nil
}

func (e *Engine) handleApprove(deal *Deal, msg *Message) (*Outcome, error) {
	if err := e.guardResolution(deal, msg); err != nil {
		return nil, err
	}
	sellerAmount, royaltyAmount := SplitSettlement(deal.Amount, deal.Royalty)
	outcome := &Outcome{Op: OpApprove, Destroyed: true}
	if deal.Asset.IsJetton() {
		wallet, err := jetton.WalletAddress(e.self, deal.Asset.Minter, deal.Asset.WalletCode)
		if err != nil {
			return nil, fmt.Errorf("escrow engine: derive wallet: %w", err)
		}
		// The tokens sit in the contract's wallet sub-contract; the
		// contract only instructs payouts, then folds its own native
		// balance into the final message and disappears.
		outcome.Transfers = []Transfer{
			{
				To:    wallet,
				Value: big.NewInt(settlementFeeBudget / 2),
				Mode:  ModePayFeesSeparately,
				Body: jetton.BuildTransfer(jetton.Transfer{
					Amount:      sellerAmount,
					Destination: deal.Seller,
					ResponseTo:  deal.Guarantor,
				}),
			},
			{
				To:   wallet,
				Mode: ModeCarryAllBalance | ModeDestroyIfZero,
				Body: jetton.BuildTransfer(jetton.Transfer{
					Amount:      royaltyAmount,
					Destination: deal.Guarantor,
					ResponseTo:  deal.Guarantor,
				}),
			},
		}
	} else {
		outcome.Transfers = []Transfer{
			{To: deal.Seller, Value: sellerAmount, Mode: ModePayFeesSeparately},
			{To: deal.Guarantor, Value: royaltyAmount, Mode: ModeCarryAllBalance | ModeDestroyIfZero},
		}
	}
	e.emit(NewApprovedEvent(deal))
	return outcome, nil
}

func (e *Engine) handleCancel(deal *Deal, msg *Message) (*Outcome, error) {
	if err := e.guardResolution(deal, msg); err != nil {
		return nil, err
	}
	outcome := &Outcome{Op: OpCancel, Destroyed: true}
	if deal.Asset.IsJetton() {
		wallet, err := jetton.WalletAddress(e.self, deal.Asset.Minter, deal.Asset.WalletCode)
		if err != nil {
			return nil, fmt.Errorf("escrow engine: derive wallet: %w", err)
		}
		// No royalty on cancellation: the full token amount returns to
		// the buyer.
		outcome.Transfers = []Transfer{
			{
				To:   wallet,
				Mode: ModeCarryAllBalance | ModeDestroyIfZero,
				Body: jetton.BuildTransfer(jetton.Transfer{
					Amount:      deal.Amount,
					Destination: deal.Buyer,
					ResponseTo:  deal.Buyer,
				}),
			},
		}
	} else {
		outcome.Transfers = []Transfer{
			{To: deal.Buyer, Mode: ModeCarryAllBalance | ModeDestroyIfZero},
		}
	}
	e.emit(NewCancelledEvent(deal))
	return outcome, nil
}

// handleTopUp accepts any sender and any value; the credit itself happens in
// the host when the message value lands on the balance.
func (e *Engine) handleTopUp(deal *Deal) (*Outcome, error) {
	e.emit(NewToppedUpEvent(deal))
	return &Outcome{Op: OpTopUp}, nil
}

// handleChangeWalletCode replaces the jetton wallet code template. Despite
// the surrounding exit code, authorization is tied to the seller.
func (e *Engine) handleChangeWalletCode(deal *Deal, msg *Message, body *cell.Slice) (*Outcome, error) {
	if !addrEqual(msg.Sender, deal.Seller) {
		return nil, exitf(ExitIncorrectGuarantor, "sender is not the seller")
	}
	if deal.State != DealInit {
		return nil, exitf(ExitWrongAsset, "deal already funded")
	}
	if !deal.Asset.IsJetton() {
		return nil, exitf(ExitWrongAsset, "native deal has no wallet code")
	}
	walletCode, err := body.LoadRefCell()
	if err != nil {
		return nil, exitf(ExitUnknownOperation, "missing wallet code template")
	}
	deal.Asset.WalletCode = walletCode
	if err := e.state.StoreDeal(deal); err != nil {
		return nil, fmt.Errorf("escrow engine: store deal: %w", err)
	}
	e.emit(NewWalletCodeChangedEvent(deal))
	return &Outcome{Op: OpChangeWalletCode}, nil
}
