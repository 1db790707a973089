package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealdesk/dealdesk/internal/application/service"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	agreementSvc service.AgreementService
	approvalSvc  service.ApprovalService
	flowSvc      service.ApprovalConfigService
	historySvc   service.StageHistoryService
	leadSvc      service.LeadService
	revisionSvc  service.RevisionService
	logger       Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	agreementSvc service.AgreementService,
	approvalSvc service.ApprovalService,
	flowSvc service.ApprovalConfigService,
	historySvc service.StageHistoryService,
	leadSvc service.LeadService,
	revisionSvc service.RevisionService,
	logger Logger,
) *Handlers {
	return &Handlers{
		agreementSvc: agreementSvc,
		approvalSvc:  approvalSvc,
		flowSvc:      flowSvc,
		historySvc:   historySvc,
		leadSvc:      leadSvc,
		revisionSvc:  revisionSvc,
		logger:       logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// statusFor maps a service error to its HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrValidation), errors.Is(err, stage.ErrInvalidStage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrConflict),
		errors.Is(err, entity.ErrInvalidState),
		errors.Is(err, stage.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"),
			"error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.respondOK(c, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// CreateAgreementRequest is the payload for creating an agreement
type CreateAgreementRequest struct {
	LeadID        int64      `json:"lead_id" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	ContractValue float64    `json:"contract_value"`
	EndDate       *time.Time `json:"end_date"`
	ActorID       int64      `json:"actor_id" binding:"required"`
}

// CreateAgreement handles POST /api/agreements
func (h *Handlers) CreateAgreement(c *gin.Context) {
	var req CreateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.Create(c.Request.Context(), service.CreateAgreementParams{
		LeadID:        req.LeadID,
		Title:         req.Title,
		ContractValue: req.ContractValue,
		EndDate:       req.EndDate,
		CreatedBy:     req.ActorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: agreement})
}

// ListAgreements handles GET /api/agreements
func (h *Handlers) ListAgreements(c *gin.Context) {
	limit, offset := pagination(c)
	agreements, err := h.agreementSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreements)
}

// GetAgreement handles GET /api/agreements/:id
func (h *Handlers) GetAgreement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	agreement, err := h.agreementSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// RemoveAgreement handles DELETE /api/agreements/:id
func (h *Handlers) RemoveAgreement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.agreementSvc.Remove(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// ChangeStageRequest is the payload for a direct stage change
type ChangeStageRequest struct {
	NewStage string `json:"new_stage" binding:"required"`
	Notes    string `json:"notes"`
	ActorID  int64  `json:"actor_id" binding:"required"`
}

// ChangeStage handles PUT /api/agreements/:id/change-stage
func (h *Handlers) ChangeStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.ChangeStage(c.Request.Context(), id, stage.Stage(req.NewStage), req.Notes, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// ReviewRequest is the payload for department review and executive approval
type ReviewRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Comments string `json:"comments"`
	ActorID  int64  `json:"actor_id" binding:"required"`
}

func (h *Handlers) review(c *gin.Context, fn func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := fn(id, req.ActorID, *req.Approved, req.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// ReviewDelivery handles PUT /api/agreements/:id/review-delivery
func (h *Handlers) ReviewDelivery(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ReviewByDelivery(c.Request.Context(), id, actorID, approved, comments)
	})
}

// ReviewProcurement handles PUT /api/agreements/:id/review-procurement
func (h *Handlers) ReviewProcurement(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ReviewByProcurement(c.Request.Context(), id, actorID, approved, comments)
	})
}

// ReviewFinance handles PUT /api/agreements/:id/review-finance
func (h *Handlers) ReviewFinance(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ReviewByFinance(c.Request.Context(), id, actorID, approved, comments)
	})
}

// ReviewClient handles PUT /api/agreements/:id/review-client
func (h *Handlers) ReviewClient(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ReviewByClient(c.Request.Context(), id, actorID, approved, comments)
	})
}

// ApproveCEO handles PUT /api/agreements/:id/approve-ceo
func (h *Handlers) ApproveCEO(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ApproveByCEO(c.Request.Context(), id, actorID, approved, comments)
	})
}

// ApproveULCCS handles PUT /api/agreements/:id/approve-ulccs
func (h *Handlers) ApproveULCCS(c *gin.Context) {
	h.review(c, func(id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
		return h.agreementSvc.ApproveByULCCS(c.Request.Context(), id, actorID, approved, comments)
	})
}

// SignClientRequest is the payload for the client signature
type SignClientRequest struct {
	SignerName string `json:"signer_name" binding:"required"`
	ActorID    int64  `json:"actor_id" binding:"required"`
}

// SignClient handles PUT /api/agreements/:id/sign-client
func (h *Handlers) SignClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SignClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.SignByClient(c.Request.Context(), id, req.SignerName, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// SignCompanyRequest is the payload for the company signature
type SignCompanyRequest struct {
	SignerID int64 `json:"signer_id" binding:"required"`
}

// SignCompany handles PUT /api/agreements/:id/sign-company
func (h *Handlers) SignCompany(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SignCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.SignByCompany(c.Request.Context(), id, req.SignerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// TerminalRequest is the payload for terminate, cancel and return-to-creator
type TerminalRequest struct {
	Reason  string `json:"reason" binding:"required"`
	ActorID int64  `json:"actor_id" binding:"required"`
}

// TerminateAgreement handles PUT /api/agreements/:id/terminate
func (h *Handlers) TerminateAgreement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.Terminate(c.Request.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// CancelAgreement handles PUT /api/agreements/:id/cancel
func (h *Handlers) CancelAgreement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.Cancel(c.Request.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// FlowEntryRequest is one approver specification of a custom flow
type FlowEntryRequest struct {
	SequenceOrder int    `json:"sequence_order" binding:"required"`
	ApprovalType  string `json:"approval_type" binding:"required"`
	ApproverID    *int64 `json:"approver_id"`
	ApproverRole  string `json:"approver_role"`
	DepartmentID  *int64 `json:"department_id"`
	IsMandatory   bool   `json:"is_mandatory"`
}

// DefineFlowRequest is the payload replacing an agreement's approval flow
type DefineFlowRequest struct {
	Approvers []FlowEntryRequest `json:"approvers" binding:"required,min=1,dive"`
}

// DefineApprovalFlow handles PUT /api/agreements/:id/approval-flow
func (h *Handlers) DefineApprovalFlow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DefineFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	entries := make([]service.FlowEntry, 0, len(req.Approvers))
	for _, a := range req.Approvers {
		entries = append(entries, service.FlowEntry{
			SequenceOrder: a.SequenceOrder,
			ApprovalType:  entity.ApprovalType(a.ApprovalType),
			ApproverID:    a.ApproverID,
			ApproverRole:  a.ApproverRole,
			DepartmentID:  a.DepartmentID,
			IsMandatory:   a.IsMandatory,
		})
	}

	configs, err := h.flowSvc.DefineFlow(c.Request.Context(), id, entries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, configs)
}

// GetApprovalFlow handles GET /api/agreements/:id/approval-flow
func (h *Handlers) GetApprovalFlow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	configs, err := h.flowSvc.GetFlow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, configs)
}

// ActorRequest carries just the acting user
type ActorRequest struct {
	ActorID int64 `json:"actor_id" binding:"required"`
}

// SendForApproval handles POST /api/agreements/:id/send-for-approval
func (h *Handlers) SendForApproval(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	approvals, err := h.agreementSvc.SendForApproval(c.Request.Context(), id, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: approvals})
}

// ReturnToCreator handles POST /api/agreements/:id/return-to-creator
func (h *Handlers) ReturnToCreator(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	agreement, err := h.agreementSvc.ReturnToCreator(c.Request.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, agreement)
}

// GetHistory handles GET /api/agreements/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	history, err := h.historySvc.ListByAgreement(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, history)
}

// GetAgreementApprovals handles GET /api/agreements/:id/approvals
func (h *Handlers) GetAgreementApprovals(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	approvals, err := h.approvalSvc.ListByEntity(c.Request.Context(), entity.ContextAgreement, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, approvals)
}

// StageSpecRequest is one approval stage in a workflow creation payload
type StageSpecRequest struct {
	Name          string `json:"name" binding:"required"`
	ApprovalType  string `json:"approval_type" binding:"required"`
	ApproverID    *int64 `json:"approver_id"`
	ApproverRole  string `json:"approver_role"`
	DepartmentID  *int64 `json:"department_id"`
	IsMandatory   bool   `json:"is_mandatory"`
	SequenceOrder int    `json:"sequence_order" binding:"required"`
}

// CreateWorkflowRequest is the payload bulk-creating an approval round
type CreateWorkflowRequest struct {
	Context  string             `json:"context" binding:"required"`
	EntityID int64              `json:"entity_id" binding:"required"`
	LeadID   int64              `json:"lead_id" binding:"required"`
	Stages   []StageSpecRequest `json:"stages" binding:"required,min=1,dive"`
}

// CreateApprovalWorkflow handles POST /api/approvals/workflow
func (h *Handlers) CreateApprovalWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	stages := make([]service.StageSpec, 0, len(req.Stages))
	for _, s := range req.Stages {
		stages = append(stages, service.StageSpec{
			Name:          s.Name,
			ApprovalType:  entity.ApprovalType(s.ApprovalType),
			ApproverID:    s.ApproverID,
			ApproverRole:  s.ApproverRole,
			DepartmentID:  s.DepartmentID,
			IsMandatory:   s.IsMandatory,
			SequenceOrder: s.SequenceOrder,
		})
	}

	approvals, err := h.approvalSvc.CreateWorkflow(c.Request.Context(), req.Context, req.EntityID, req.LeadID, stages)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: approvals})
}

// RespondApprovalRequest is the payload resolving one approval
type RespondApprovalRequest struct {
	Status   string `json:"status" binding:"required"`
	Comments string `json:"comments"`
	ActorID  int64  `json:"actor_id" binding:"required"`
}

// RespondApproval handles PUT /api/approvals/:id/respond.
// After the approval resolves, the owning workflow advances: agreement
// rounds may move the agreement to PendingSignature, revision rounds
// settle the revision.
func (h *Handlers) RespondApproval(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RespondApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	approval, err := h.approvalSvc.Respond(c.Request.Context(), id, req.ActorID, entity.ApprovalStatus(req.Status), req.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}

	switch approval.Context {
	case entity.ContextAgreement:
		if _, err := h.agreementSvc.UpdateStageAfterApproval(c.Request.Context(), approval.EntityID, req.ActorID); err != nil {
			h.respondError(c, err)
			return
		}
	case entity.ContextRevision:
		if _, err := h.revisionSvc.ResolveAfterApproval(c.Request.Context(), approval.EntityID); err != nil {
			h.respondError(c, err)
			return
		}
	}

	h.respondOK(c, approval)
}

// SkipApprovalRequest is the payload skipping a non-mandatory approval
type SkipApprovalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SkipApproval handles PUT /api/approvals/:id/skip
func (h *Handlers) SkipApproval(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SkipApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if err := h.approvalSvc.Skip(c.Request.Context(), id, req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, nil)
}

// CreateLeadRequest is the payload for creating a lead
type CreateLeadRequest struct {
	Company        string `json:"company" binding:"required"`
	ContactName    string `json:"contact_name"`
	ContactEmail   string `json:"contact_email"`
	AccountOwnerID int64  `json:"account_owner_id" binding:"required"`
	IsULCCSProject bool   `json:"is_ulccs_project"`
}

// CreateLead handles POST /api/leads
func (h *Handlers) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	lead, err := h.leadSvc.Create(c.Request.Context(), &entity.Lead{
		Company:        req.Company,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		AccountOwnerID: req.AccountOwnerID,
		IsULCCSProject: req.IsULCCSProject,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: lead})
}

// ListLeads handles GET /api/leads
func (h *Handlers) ListLeads(c *gin.Context) {
	limit, offset := pagination(c)
	leads, err := h.leadSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, leads)
}

// GetLead handles GET /api/leads/:id
func (h *Handlers) GetLead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lead, err := h.leadSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, lead)
}

// ListRevisions handles GET /api/leads/:id/revisions
func (h *Handlers) ListRevisions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	revisions, err := h.revisionSvc.ListByLead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, revisions)
}

// SubmitRevisionRequest is the payload for a negotiation revision
type SubmitRevisionRequest struct {
	LeadID  int64  `json:"lead_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Body    string `json:"body"`
	ActorID int64  `json:"actor_id" binding:"required"`
}

// SubmitRevision handles POST /api/revisions
func (h *Handlers) SubmitRevision(c *gin.Context) {
	var req SubmitRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	revision, err := h.revisionSvc.Submit(c.Request.Context(), req.LeadID, req.ActorID, req.Title, req.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: revision})
}

// GetRevision handles GET /api/revisions/:id
func (h *Handlers) GetRevision(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	revision, err := h.revisionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, revision)
}
