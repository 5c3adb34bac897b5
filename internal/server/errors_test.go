package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	paymentdomain "github.com/smallbiznis/feeledger/internal/payment/domain"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "voucher not found", err: voucherdomain.ErrVoucherNotFound, wantStatus: http.StatusNotFound, wantType: "not_found"},
		{name: "payment voucher not found", err: paymentdomain.ErrVoucherNotFound, wantStatus: http.StatusNotFound, wantType: "not_found"},
		{name: "already settled", err: paymentdomain.ErrAlreadySettled, wantStatus: http.StatusConflict, wantType: "conflict"},
		{name: "cancelled", err: paymentdomain.ErrVoucherCancelled, wantStatus: http.StatusConflict, wantType: "conflict"},
		{name: "not cancellable", err: voucherdomain.ErrNotCancellable, wantStatus: http.StatusConflict, wantType: "conflict"},
		{name: "concurrent update", err: paymentdomain.ErrConcurrentUpdate, wantStatus: http.StatusConflict, wantType: "conflict"},
		{name: "invalid amount", err: paymentdomain.ErrInvalidAmount, wantStatus: http.StatusUnprocessableEntity, wantType: "invalid_request"},
		{name: "wrapped invalid amount", err: fmt.Errorf("%w: amount exceeds remaining balance of 600", paymentdomain.ErrInvalidAmount), wantStatus: http.StatusUnprocessableEntity, wantType: "invalid_request"},
		{name: "no fee schedule", err: voucherdomain.ErrNoFeeSchedule, wantStatus: http.StatusUnprocessableEntity, wantType: "invalid_request"},
		{name: "invalid period", err: voucherdomain.ErrInvalidPeriod, wantStatus: http.StatusUnprocessableEntity, wantType: "invalid_request"},
		{name: "validation", err: newValidationError("id", "invalid_id", "invalid id"), wantStatus: http.StatusBadRequest, wantType: "invalid_request"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if payload.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", payload.Type, tc.wantType)
			}
		})
	}
}

func TestMapErrorHidesInternalDetails(t *testing.T) {
	_, payload := mapError(errors.New("pq: connection refused"))
	if payload.Message != "internal error" {
		t.Fatalf("message = %q, internal errors must not leak", payload.Message)
	}
}
