package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/confidential-pay/internal/common"
	"github.com/AlexZinkM/confidential-pay/internal/model"
	"github.com/AlexZinkM/confidential-pay/payment"

	"github.com/sirupsen/logrus"
)

// IntentHandler exposes the payment intent orchestrator over HTTP
type IntentHandler struct {
	svc *payment.Service
	log *logrus.Logger
}

// NewIntentHandler creates a new IntentHandler
func NewIntentHandler(svc *payment.Service, logger *logrus.Logger) *IntentHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &IntentHandler{svc: svc, log: logger}
}

// Create handles POST /intents
// @Summary      Create payment intent
// @Description  Encrypts the amount for the sender and stores a PENDING intent
// @Tags         intents
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateIntentRequest  true  "Intent data"
// @Success      201      {object}  model.PaymentIntent
// @Failure      400      {object}  model.ErrorResponse
// @Router       /intents [post]
func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	amount, err := common.ToMinorUnits(req.Currency, req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	intent, err := h.svc.Create(r.Context(), payment.CreateParams{
		MerchantID:    req.MerchantID,
		CustomerID:    req.CustomerID,
		Sender:        req.Sender,
		Recipient:     req.Recipient,
		Amount:        amount,
		Currency:      req.Currency,
		Description:   req.Description,
		Metadata:      req.Metadata,
		UserSignature: req.UserSignature,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, intent)
}

// List handles GET /intents
// @Summary      List payment intents
// @Description  Lists intents newest first with optional filters
// @Tags         intents
// @Produce      json
// @Param        merchantId  query     string  false  "Merchant ID"
// @Param        customerId  query     string  false  "Customer ID"
// @Param        status      query     string  false  "PENDING, PROCESSING, CONFIRMED, FINALIZED, CANCELLED or FAILED"
// @Param        limit       query     int     false  "Page size (max 200, default 50)"
// @Param        offset      query     int     false  "Offset"
// @Success      200         {object}  model.ListIntentsResponse
// @Failure      400         {object}  model.ErrorResponse
// @Router       /intents [get]
func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	var req model.ListIntentsRequest
	q := r.URL.Query()

	if merchantID := q.Get("merchantId"); merchantID != "" {
		req.MerchantID = &merchantID
	}
	if customerID := q.Get("customerId"); customerID != "" {
		req.CustomerID = &customerID
	}
	if statusStr := q.Get("status"); statusStr != "" {
		status := model.IntentStatus(statusStr)
		req.Status = &status
	}

	var err error
	if limit := q.Get("limit"); limit != "" {
		if req.Limit, err = strconv.Atoi(limit); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err)
			return
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if req.Offset, err = strconv.Atoi(offset); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err)
			return
		}
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	filter := req.Filter()
	intents, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if intents == nil {
		intents = []*model.PaymentIntent{}
	}

	writeJSON(w, http.StatusOK, model.ListIntentsResponse{
		Data:    intents,
		Total:   total,
		HasMore: filter.Offset+len(intents) < total,
	})
}

// Get handles GET /intents/{id}
// @Summary      Get payment intent
// @Tags         intents
// @Produce      json
// @Param        id   path      string  true  "Intent ID"
// @Success      200  {object}  model.PaymentIntent
// @Failure      404  {object}  model.ErrorResponse
// @Router       /intents/{id} [get]
func (h *IntentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	intent, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Submit handles POST /intents/{id}/submit
// @Summary      Submit intent for MPC computation
// @Description  Sends the encrypted amount to the MPC network. A second submission is rejected with 409.
// @Tags         intents
// @Produce      json
// @Param        id   path      string  true  "Intent ID"
// @Success      200  {object}  model.PaymentIntent
// @Failure      409  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /intents/{id}/submit [post]
func (h *IntentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	intent, err := h.svc.SubmitForComputation(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// SubmitBatch handles POST /intents/batch
// @Summary      Submit payroll batch
// @Description  Sends several PENDING intents to the MPC network as one computation
// @Tags         intents
// @Accept       json
// @Produce      json
// @Param        request  body      model.BatchSubmitRequest  true  "Intent IDs"
// @Success      200      {object}  model.BatchSubmitResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /intents/batch [post]
func (h *IntentHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.BatchSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	resp, err := h.svc.SubmitBatch(r.Context(), req.IntentIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Confirm handles POST /intents/{id}/confirm
// @Summary      Confirm payment intent
// @Tags         intents
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "Intent ID"
// @Param        request  body      model.ConfirmRequest  false  "Settlement proof"
// @Success      200      {object}  model.PaymentIntent
// @Failure      409      {object}  model.ErrorResponse
// @Router       /intents/{id}/confirm [post]
func (h *IntentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ConfirmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err)
			return
		}
	}

	intent, err := h.svc.Confirm(r.Context(), r.PathValue("id"), req.Proof)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Finalize handles POST /intents/{id}/finalize
// @Summary      Finalize payment intent
// @Tags         intents
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Intent ID"
// @Param        request  body      model.FinalizeRequest  true  "Finalization signature"
// @Success      200      {object}  model.PaymentIntent
// @Failure      409      {object}  model.ErrorResponse
// @Router       /intents/{id}/finalize [post]
func (h *IntentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if req.Signature == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errMissingSignature)
		return
	}

	intent, err := h.svc.Finalize(r.Context(), r.PathValue("id"), req.Signature)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Cancel handles POST /intents/{id}/cancel
// @Summary      Cancel payment intent
// @Description  Cancels a PENDING or PROCESSING intent. A late computation result is discarded.
// @Tags         intents
// @Produce      json
// @Param        id   path      string  true  "Intent ID"
// @Success      200  {object}  model.PaymentIntent
// @Failure      409  {object}  model.ErrorResponse
// @Router       /intents/{id}/cancel [post]
func (h *IntentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	intent, err := h.svc.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Reveal handles GET /intents/{id}/amount
//
// userId is the key owner and is visible to anyone who can read the intent,
// so it is not a credential. The route must be served behind the wallet
// authentication layer that binds userId to the caller; this service does
// not authenticate it.
//
// @Summary      Reveal amount
// @Description  Decrypts the amount for userId. If decryption fails the amount is hidden, never zero. Requires an authenticating proxy that binds userId to the caller.
// @Tags         intents
// @Produce      json
// @Param        id      path      string  true  "Intent ID"
// @Param        userId  query     string  true  "Key owner"
// @Success      200     {object}  model.RevealResponse
// @Failure      404     {object}  model.ErrorResponse
// @Router       /intents/{id}/amount [get]
func (h *IntentHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errMissingUserID)
		return
	}

	resp, err := h.svc.Reveal(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Checkout handles GET /intents/{id}/checkout
// @Summary      Checkout link and QR code
// @Description  Solana Pay link for an open intent with a base64 PNG QR code
// @Tags         intents
// @Produce      json
// @Param        id   path      string  true  "Intent ID"
// @Success      200  {object}  model.CheckoutResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /intents/{id}/checkout [get]
func (h *IntentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.svc.Checkout(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Callback handles POST /computations/callback
// @Summary      MPC computation callback
// @Description  Settlement notification from the MPC network: finalized, failed or cancelled
// @Tags         computations
// @Accept       json
// @Produce      json
// @Param        request  body      model.ComputationCallback  true  "Callback"
// @Success      200      {object}  model.PaymentIntent
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /computations/callback [post]
func (h *IntentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var cb model.ComputationCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if cb.ComputationID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errMissingComputationID)
		return
	}

	intent, err := h.svc.HandleCallback(r.Context(), &cb)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}
