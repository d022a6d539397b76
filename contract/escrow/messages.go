package escrow

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"tonescrow/contract/jetton"
)

// Operation tags recognised by the dispatcher. Each is the 32-bit leading
// field of an inbound message body.
const (
	OpApprove          uint32 = 0xe8c15681
	OpCancel           uint32 = 0xcc0f2526
	OpBuyerTransfer    uint32 = 0x9451eca9
	OpTopUp            uint32 = 0xae98db22
	OpChangeWalletCode uint32 = 0x9eacde91
)

// OpName resolves an operation tag to a stable label used for metrics and
// logging. Plain value transfers carry no tag and are reported separately.
func OpName(op uint32) string {
	switch op {
	case OpApprove:
		return "approve"
	case OpCancel:
		return "cancel"
	case OpBuyerTransfer:
		return "buyer_transfer"
	case OpTopUp:
		return "top_up"
	case OpChangeWalletCode:
		return "change_wallet_code"
	case jetton.OpTransferNotification:
		return "transfer_notification"
	default:
		return "unknown"
	}
}

// Send mode flags for outbound transfers, matching the chain's message-send
// semantics.
const (
	// ModePayFeesSeparately deducts forwarding fees from the sender's
	// balance instead of the attached value.
	ModePayFeesSeparately uint8 = 1
	// ModeDestroyIfZero deletes the sending account once its balance
	// reaches zero as a result of the send.
	ModeDestroyIfZero uint8 = 32
	// ModeCarryAllBalance replaces the attached value with the account's
	// entire remaining balance.
	ModeCarryAllBalance uint8 = 128
)

// Message is an inbound internal message as seen by the contract: the
// authenticated sender, the attached native value and an optional body.
// A nil body is a plain value transfer.
type Message struct {
	Sender  *address.Address
	Value   *big.Int
	Body    *cell.Cell
	Bounced bool
}

// Transfer is an outbound message requested by the settlement engine. Value
// is ignored by the host when ModeCarryAllBalance is set.
type Transfer struct {
	To    *address.Address
	Value *big.Int
	Mode  uint8
	Body  *cell.Cell
}

// Outcome is the effect of a successfully handled message. Destroyed marks
// the terminal transition of approve and cancel: the host must delete the
// account exactly once when it is set.
type Outcome struct {
	Op        uint32
	Transfers []Transfer
	Destroyed bool
}

// BuildApprove constructs the body the guarantor sends to resolve a deal in
// favour of the seller.
func BuildApprove() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(uint64(OpApprove), 32).EndCell()
}

// BuildCancel constructs the body the guarantor sends to refund the buyer.
func BuildCancel() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(uint64(OpCancel), 32).EndCell()
}

// BuildBuyerTransfer constructs the explicit native funding marker. A plain
// transfer with no body is equivalent on the native path.
func BuildBuyerTransfer() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(uint64(OpBuyerTransfer), 32).EndCell()
}

// BuildTopUp constructs the body that raises the contract balance without
// touching deal state.
func BuildTopUp() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(uint64(OpTopUp), 32).EndCell()
}

// BuildChangeWalletCode constructs the seller-authorised body replacing the
// jetton wallet code template. The template travels as the body's sole
// reference.
func BuildChangeWalletCode(walletCode *cell.Cell) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(uint64(OpChangeWalletCode), 32).
		MustStoreRef(walletCode).
		EndCell()
}
