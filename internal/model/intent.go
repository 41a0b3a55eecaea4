package model

import "time"

// IntentStatus is the lifecycle status of a payment intent
type IntentStatus string

const (
	IntentStatusPending    IntentStatus = "PENDING"
	IntentStatusProcessing IntentStatus = "PROCESSING"
	IntentStatusConfirmed  IntentStatus = "CONFIRMED"
	IntentStatusFinalized  IntentStatus = "FINALIZED"
	IntentStatusCancelled  IntentStatus = "CANCELLED"
	IntentStatusFailed     IntentStatus = "FAILED"
)

// ComputationStatus tracks the MPC call independently of the intent status
type ComputationStatus string

const (
	ComputationQueued     ComputationStatus = "QUEUED"
	ComputationProcessing ComputationStatus = "PROCESSING"
	ComputationCompleted  ComputationStatus = "COMPLETED"
	ComputationFailed     ComputationStatus = "FAILED"
)

// Metadata keys written by the orchestrator
const (
	MetadataEncryptionKey     = "encryption_key"
	MetadataEncrypted         = "encrypted"
	MetadataMerchantSignature = "merchantSignature"
)

// PaymentIntent is a requested transfer whose amount is only stored encrypted.
type PaymentIntent struct {
	ID          string `json:"id"`
	MerchantID  string `json:"merchantId,omitempty"`
	CustomerID  string `json:"customerId,omitempty"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`

	// AmountCommitment is the base64 ciphertext of the amount, bound to the
	// key owner recorded in Metadata[MetadataEncryptionKey].
	AmountCommitment string `json:"amountCommitment"`

	Status            IntentStatus      `json:"status"`
	ComputationStatus ComputationStatus `json:"computationStatus,omitempty"`
	ComputationID     string            `json:"computationId,omitempty"`
	ComputationError  string            `json:"computationError,omitempty"`
	Attempts          int               `json:"attempts"`

	// ResultCommitment is the base64 ciphertext returned by the MPC network.
	ResultCommitment      string `json:"resultCommitment,omitempty"`
	SettlementProof       string `json:"settlementProof,omitempty"`
	FinalizationSignature string `json:"finalizationSignature,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

// KeyOwner returns the user id the amount commitment is encrypted for.
func (p *PaymentIntent) KeyOwner() string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[MetadataEncryptionKey]
}

// IsTerminal reports whether the intent can no longer change.
func (p *PaymentIntent) IsTerminal() bool {
	switch p.Status {
	case IntentStatusFinalized, IntentStatusCancelled, IntentStatusFailed:
		return true
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (p *PaymentIntent) Clone() *PaymentIntent {
	c := *p
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	if p.FinalizedAt != nil {
		t := *p.FinalizedAt
		c.FinalizedAt = &t
	}
	return &c
}

// IntentFilter selects intents for listing
type IntentFilter struct {
	MerchantID string
	CustomerID string
	Status     *IntentStatus
	Limit      int
	Offset     int
}
