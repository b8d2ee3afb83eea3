package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/ledger"
	"hav/internal/middleware"
	"hav/internal/utils"
)

// statusFor maps a ledger revert to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotOccupied), errors.Is(err, ledger.ErrOccupied), errors.Is(err, ledger.ErrBalanceOverflow):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNoOwner):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAddress):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeRevert(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("ledger call failed")
		utils.JSON(w, status, utils.APIResponse{Success: false, Message: "internal error"})
		return
	}
	utils.JSON(w, status, utils.APIResponse{Success: false, Message: "call reverted", Error: ledger.Kind(err)})
}

func caller(w http.ResponseWriter, r *http.Request) (ledger.Address, bool) {
	addr, ok := middleware.Caller(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
	}
	return addr, ok
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func parseAddress(w http.ResponseWriter, field, s string) (ledger.Address, bool) {
	addr, err := ledger.ParseAddress(s)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, field+": "+err.Error())
		return addr, false
	}
	return addr, true
}

func parseValue(w http.ResponseWriter, s string) (ledger.Wei, bool) {
	if s == "" {
		return 0, true
	}
	v, err := ledger.ParseWei(s)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "value: "+err.Error())
		return 0, false
	}
	return v, true
}

// RefundError reports a reverted call whose payment could not be returned
// to the sender.
type RefundError struct {
	Call   ledger.Call
	Revert error
	Err    error
}

func (e *RefundError) Error() string {
	return fmt.Sprintf("refund of %s to %s after %v: %v", e.Call.Value, e.Call.Sender, e.Revert, e.Err)
}

func (e *RefundError) Unwrap() error { return e.Err }

// pay debits call.Value from the sender, runs fn, and refunds the sender
// if fn reverts. A reverted call moves no funds. The refund outlives the
// request context.
func pay(ctx context.Context, store accounts.Store, call ledger.Call, fn func() error) error {
	if err := store.Debit(ctx, call.Sender, call.Value); err != nil {
		return err
	}
	callErr := fn()
	if callErr == nil {
		return nil
	}
	if err := store.Credit(context.WithoutCancel(ctx), call.Sender, call.Value); err != nil {
		return &RefundError{Call: call, Revert: callErr, Err: err}
	}
	return callErr
}

// writePaymentError reports a failed debit, a failed refund or a ledger revert.
func writePaymentError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var refund *RefundError
	switch {
	case errors.As(err, &refund):
		log.WithError(refund.Err).WithFields(logrus.Fields{
			"sender": refund.Call.Sender.String(),
			"value":  refund.Call.Value.String(),
			"revert": ledger.Kind(refund.Revert),
		}).Error("refund after reverted call failed")
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "call reverted and refund failed", Error: "RefundFailed"})
	case errors.Is(err, accounts.ErrInsufficientFunds):
		utils.JSON(w, http.StatusPaymentRequired, utils.APIResponse{Success: false, Message: "insufficient funds", Error: "InsufficientFunds"})
	case errors.Is(err, accounts.ErrNotFound):
		utils.JSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "unknown account", Error: "UnknownAccount"})
	default:
		writeRevert(w, log, err)
	}
}
