package escrow

import (
	"errors"
	"fmt"
)

// ExitCode is the numeric signal surfaced to callers when a message aborts.
// The codes are part of the deployed contract's public interface and must not
// be renumbered.
type ExitCode uint32

const (
	// ExitWrongAsset covers asset-kind mismatches, double funding and
	// post-funding wallet-code changes: the message does not apply to the
	// deal's remaining lifecycle.
	ExitWrongAsset ExitCode = 400
	// ExitIncorrectFundAmount signals a funding attempt whose amount does
	// not satisfy the deal's required quantity.
	ExitIncorrectFundAmount ExitCode = 401
	// ExitIncorrectJetton signals a transfer notification whose source is
	// not the deal's deterministically derived jetton wallet.
	ExitIncorrectJetton ExitCode = 402
	// ExitIncorrectGuarantor covers role-gated operations invoked by the
	// wrong sender, and approve/cancel before funding completed.
	ExitIncorrectGuarantor ExitCode = 403
	// ExitLowFeeBalance signals that the spendable balance cannot cover
	// outbound settlement fees. Recoverable: top up and retry.
	ExitLowFeeBalance ExitCode = 404
	// ExitUnknownOperation rejects a body with an unrecognised leading
	// operation tag.
	ExitUnknownOperation ExitCode = 0xffff
)

func (c ExitCode) String() string {
	switch c {
	case ExitWrongAsset:
		return "wrong_asset"
	case ExitIncorrectFundAmount:
		return "incorrect_fund_amount"
	case ExitIncorrectJetton:
		return "incorrect_jetton"
	case ExitIncorrectGuarantor:
		return "incorrect_guarantor"
	case ExitLowFeeBalance:
		return "low_fee_balance"
	case ExitUnknownOperation:
		return "unknown_operation"
	default:
		return fmt.Sprintf("exit_%d", uint32(c))
	}
}

// ExitError aborts the current message with a numeric exit code. No partial
// state mutation survives an ExitError; the host rolls the message back.
type ExitError struct {
	Code   ExitCode
	Reason string
}

func (e *ExitError) Error() string {
	if e == nil {
		return "escrow: exit"
	}
	if e.Reason == "" {
		return fmt.Sprintf("escrow: exit %d (%s)", uint32(e.Code), e.Code)
	}
	return fmt.Sprintf("escrow: exit %d (%s): %s", uint32(e.Code), e.Code, e.Reason)
}

func exitf(code ExitCode, format string, args ...any) error {
	return &ExitError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// ExitCodeOf extracts the exit code from an aborted message error. The second
// return is false for infrastructure errors that carry no code.
func ExitCodeOf(err error) (ExitCode, bool) {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code, true
	}
	return 0, false
}
