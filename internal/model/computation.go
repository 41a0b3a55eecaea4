package model

// Operation names a confidential computation understood by the MPC network
type Operation string

const (
	OpConfidentialTransfer Operation = "encrypted_transfer"
	OpBatchPayroll         Operation = "batch_payroll"
	OpQueryBalance         Operation = "query_balance"
	OpValidateAmount       Operation = "validate_amount"
	OpAddValues            Operation = "add_values"
)

// Result statuses reported by the MPC network
const (
	ResultStatusCompleted = "completed"
	ResultStatusFailed    = "failed"
)

// ComputationRequest is one call to the MPC network.
// Batch holds Count packed ciphertext records. Either KeyRef applies to every
// record or KeyRefs names the owner of each record in order.
type ComputationRequest struct {
	ComputationID string    `json:"computation_id"`
	Operation     Operation `json:"operation"`
	Batch         []byte    `json:"batch"`
	Count         int       `json:"count"`
	KeyRef        string    `json:"key_ref,omitempty"`
	KeyRefs       []string  `json:"key_refs,omitempty"`
	EntityType    string    `json:"entity_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
}

// KeyFor returns the key owner of record i.
func (r *ComputationRequest) KeyFor(i int) string {
	if len(r.KeyRefs) > 0 {
		if i < len(r.KeyRefs) {
			return r.KeyRefs[i]
		}
		return ""
	}
	return r.KeyRef
}

// ComputationResult is the MPC network's answer. Output holds Count packed
// result records, each encrypted for the key owner of the matching input.
type ComputationResult struct {
	ComputationID string `json:"computation_id"`
	Status        string `json:"status"`
	Output        []byte `json:"result"`
	Count         int    `json:"count"`
	Error         string `json:"error,omitempty"`
}

// ComputationCallback is pushed by the MPC network once a computation settles.
type ComputationCallback struct {
	ComputationID         string `json:"computation_id"`
	Status                string `json:"status"`
	FinalizationSignature string `json:"finalization_signature,omitempty"`
	Error                 string `json:"error,omitempty"`
}

// Callback statuses
const (
	CallbackFinalized = "finalized"
	CallbackFailed    = "failed"
	CallbackCancelled = "cancelled"
)
