package stage

// Stage represents a lifecycle stage of an agreement
type Stage string

const (
	Draft             Stage = "DRAFT"
	LegalReview       Stage = "LEGAL_REVIEW"
	DeliveryReview    Stage = "DELIVERY_REVIEW"
	ProcurementReview Stage = "PROCUREMENT_REVIEW"
	FinanceReview     Stage = "FINANCE_REVIEW"
	ClientReview      Stage = "CLIENT_REVIEW"
	CEOApproval       Stage = "CEO_APPROVAL"
	ULCCSApproval     Stage = "ULCCS_APPROVAL"
	PendingSignature  Stage = "PENDING_SIGNATURE"
	Signed            Stage = "SIGNED"
	Active            Stage = "ACTIVE"
	Expired           Stage = "EXPIRED"
	Terminated        Stage = "TERMINATED"
	Cancelled         Stage = "CANCELLED"
)

var validStages = map[Stage]bool{
	Draft:             true,
	LegalReview:       true,
	DeliveryReview:    true,
	ProcurementReview: true,
	FinanceReview:     true,
	ClientReview:      true,
	CEOApproval:       true,
	ULCCSApproval:     true,
	PendingSignature:  true,
	Signed:            true,
	Active:            true,
	Expired:           true,
	Terminated:        true,
	Cancelled:         true,
}

// terminalStages have no outgoing transitions at all
var terminalStages = map[Stage]bool{
	Terminated: true,
	Cancelled:  true,
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a known lifecycle stage
func (s Stage) IsValid() bool {
	return validStages[s]
}

// IsTerminal returns true if no transition can ever leave this stage
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// All returns every known stage in pipeline order
func All() []Stage {
	return []Stage{
		Draft, LegalReview, DeliveryReview, ProcurementReview, FinanceReview,
		ClientReview, CEOApproval, ULCCSApproval, PendingSignature, Signed,
		Active, Expired, Terminated, Cancelled,
	}
}
