package stage

import "fmt"

// transitions is the full adjacency table of permitted stage changes.
// The review pipeline is linear; each review stage may step back exactly one
// stage on rejection, and every non-terminal stage may be cancelled.
var transitions = map[Stage][]Stage{
	Draft:             {LegalReview, PendingSignature, Cancelled},
	LegalReview:       {DeliveryReview, Draft, Cancelled},
	DeliveryReview:    {ProcurementReview, LegalReview, Cancelled},
	ProcurementReview: {FinanceReview, DeliveryReview, Cancelled},
	FinanceReview:     {ClientReview, ProcurementReview, Cancelled},
	ClientReview:      {CEOApproval, FinanceReview, Cancelled},
	CEOApproval:       {ULCCSApproval, PendingSignature, FinanceReview, Cancelled},
	ULCCSApproval:     {PendingSignature, CEOApproval, Cancelled},
	// Draft is reachable again from PendingSignature via the manual
	// stage-change endpoint: if terms change before both signatures land,
	// the agreement is reworked from scratch.
	PendingSignature: {Signed, Draft, Cancelled},
	Signed:           {Active, Terminated},
	Active:           {Expired, Terminated},
	Expired:          {Active, Cancelled},
	Terminated:       {},
	Cancelled:        {},
}

// Validate reports whether the transition from -> to is permitted.
// It returns ErrInvalidStage for unknown stages and ErrInvalidTransition
// for pairs absent from the table.
func Validate(from, to Stage) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, from)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, to)
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// CanTransition reports whether from -> to is permitted without error detail
func CanTransition(from, to Stage) bool {
	return Validate(from, to) == nil
}

// PermittedFrom returns the stages reachable from the given stage
func PermittedFrom(from Stage) []Stage {
	next := transitions[from]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}
