package stage

// ReviewOutcome declares where a review stage moves on approval and rejection
type ReviewOutcome struct {
	OnApprove Stage
	OnReject  Stage
}

// reviewPipeline drives the department review back-and-forth: approval
// advances one stage, rejection steps back exactly one stage. CEOApproval is
// absent because its approval target is conditional on the ULCCS flag and is
// decided by the coordinator.
var reviewPipeline = map[Stage]ReviewOutcome{
	DeliveryReview:    {OnApprove: ProcurementReview, OnReject: LegalReview},
	ProcurementReview: {OnApprove: FinanceReview, OnReject: DeliveryReview},
	FinanceReview:     {OnApprove: ClientReview, OnReject: ProcurementReview},
	ClientReview:      {OnApprove: CEOApproval, OnReject: FinanceReview},
	ULCCSApproval:     {OnApprove: PendingSignature, OnReject: CEOApproval},
}

// ReviewTargets returns the approve/reject targets for a review stage.
// ok is false when the stage is not part of the review pipeline.
func ReviewTargets(s Stage) (ReviewOutcome, bool) {
	out, ok := reviewPipeline[s]
	return out, ok
}
