package model

import "fmt"

// CreateIntentRequest represents request for POST /intents
type CreateIntentRequest struct {
	MerchantID    string            `json:"merchantId"`
	CustomerID    string            `json:"customerId"`
	Sender        string            `json:"sender" binding:"required"`
	Recipient     string            `json:"recipient" binding:"required"`
	Amount        string            `json:"amount" binding:"required"` // decimal string, e.g. "100.00"
	Currency      string            `json:"currency" binding:"required"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata"`
	UserSignature string            `json:"userSignature"`
}

// ConfirmRequest represents request for POST /intents/{id}/confirm
type ConfirmRequest struct {
	Proof string `json:"proof"`
}

// FinalizeRequest represents request for POST /intents/{id}/finalize
type FinalizeRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// BatchSubmitRequest represents request for POST /intents/batch
type BatchSubmitRequest struct {
	IntentIDs []string `json:"intentIds" binding:"required"`
}

// BatchSubmitResponse represents response for POST /intents/batch
type BatchSubmitResponse struct {
	ComputationID string           `json:"computationId"`
	Intents       []*PaymentIntent `json:"intents"`
}

// RevealResponse represents response for GET /intents/{id}/amount.
// When the amount cannot be decrypted it is omitted and AmountHidden is set.
type RevealResponse struct {
	ID           string `json:"id"`
	Currency     string `json:"currency"`
	Amount       string `json:"amount,omitempty"`
	AmountMinor  string `json:"amountMinor,omitempty"`
	AmountHidden bool   `json:"amountHidden"`
	Error        string `json:"error,omitempty"`
}

// CheckoutResponse represents response for GET /intents/{id}/checkout
type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	QR  string `json:"QR"` // base64 PNG
}

// ListIntentsResponse represents response for GET /intents
type ListIntentsResponse struct {
	Data    []*PaymentIntent `json:"data"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

// ListIntentsRequest represents query parameters for GET /intents
type ListIntentsRequest struct {
	MerchantID *string       `form:"merchantId"`
	CustomerID *string       `form:"customerId"`
	Status     *IntentStatus `form:"status"`
	Limit      int           `form:"limit"`
	Offset     int           `form:"offset"`
}

// Validate validates ListIntentsRequest parameters.
func (r *ListIntentsRequest) Validate() error {
	if r.Status != nil {
		switch *r.Status {
		case IntentStatusPending, IntentStatusProcessing, IntentStatusConfirmed,
			IntentStatusFinalized, IntentStatusCancelled, IntentStatusFailed:
		default:
			return fmt.Errorf("unknown status %q", *r.Status)
		}
	}
	if r.Limit < 0 || r.Limit > 200 {
		return fmt.Errorf("limit must be between 0 and 200")
	}
	if r.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

// Filter converts the request to a store filter.
func (r *ListIntentsRequest) Filter() IntentFilter {
	f := IntentFilter{
		Status: r.Status,
		Limit:  r.Limit,
		Offset: r.Offset,
	}
	if r.MerchantID != nil {
		f.MerchantID = *r.MerchantID
	}
	if r.CustomerID != nil {
		f.CustomerID = *r.CustomerID
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	return f
}
