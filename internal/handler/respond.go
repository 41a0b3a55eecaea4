package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/confidential-pay/internal/batch"
	"github.com/AlexZinkM/confidential-pay/internal/common"
	"github.com/AlexZinkM/confidential-pay/internal/model"
	"github.com/AlexZinkM/confidential-pay/payment"

	"github.com/sirupsen/logrus"
)

// Error codes carried in model.ErrorResponse
const (
	codeBadRequest        = "bad_request"
	codeNotFound          = "not_found"
	codeInvalidState      = "invalid_state"
	codeAlreadySubmitted  = "already_submitted"
	codeResultDiscarded   = "result_discarded"
	codeComputationFailed = "computation_failed"
	codeUnverified        = "unverified_settlement"
	codeInternal          = "internal"
)

var (
	errMissingSignature     = errors.New("signature is required")
	errMissingUserID        = errors.New("userId query parameter is required")
	errMissingComputationID = errors.New("computation_id is required")
)

// badRequest lists errors caused by the caller's input.
var badRequest = []error{
	payment.ErrInvalidAmount,
	payment.ErrInvalidRecipient,
	payment.ErrMissingSender,
	payment.ErrEmptyBatch,
	payment.ErrDuplicateIntent,
	payment.ErrUnknownCallbackStatus,
	common.ErrUnsupportedCurrency,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// statusFor maps service errors to HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, payment.ErrResultDiscarded):
		return http.StatusConflict, codeResultDiscarded
	case errors.Is(err, payment.ErrAlreadySubmitted):
		return http.StatusConflict, codeAlreadySubmitted
	case payment.IsStateError(err):
		return http.StatusConflict, codeInvalidState
	case errors.Is(err, payment.ErrUnverifiedSettlement):
		return http.StatusUnprocessableEntity, codeUnverified
	case errors.Is(err, payment.ErrComputation):
		return http.StatusBadGateway, codeComputationFailed
	case errors.Is(err, batch.ErrStructural):
		return http.StatusBadRequest, codeBadRequest
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, codeBadRequest
		}
	}
	return http.StatusInternalServerError, codeInternal
}

func (h *IntentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	entry := h.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeError(w, status, code, err)
}
