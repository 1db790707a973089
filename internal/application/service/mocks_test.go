package service

import (
	"context"
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// Mock repositories shared by the service tests. Funcs left nil fall back to
// a benign default.

type mockAgreementRepo struct {
	createFunc                func(ctx context.Context, agreement *entity.Agreement) error
	getByIDFunc               func(ctx context.Context, id int64) (*entity.Agreement, error)
	updateFunc                func(ctx context.Context, agreement *entity.Agreement) error
	deleteFunc                func(ctx context.Context, id int64) error
	listFunc                  func(ctx context.Context, limit, offset int) ([]*entity.Agreement, error)
	listInStagesFunc          func(ctx context.Context, stages []stage.Stage) ([]*entity.Agreement, error)
	listActivePastEndDateFunc func(ctx context.Context, cutoff time.Time) ([]*entity.Agreement, error)
}

func (m *mockAgreementRepo) Create(ctx context.Context, agreement *entity.Agreement) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, agreement)
	}
	agreement.ID = 1
	return nil
}

func (m *mockAgreementRepo) GetByID(ctx context.Context, id int64) (*entity.Agreement, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Agreement{ID: id, LeadID: 1, Stage: stage.Draft}, nil
}

func (m *mockAgreementRepo) Update(ctx context.Context, agreement *entity.Agreement) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, agreement)
	}
	return nil
}

func (m *mockAgreementRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAgreementRepo) List(ctx context.Context, limit, offset int) ([]*entity.Agreement, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*entity.Agreement{}, nil
}

func (m *mockAgreementRepo) ListInStages(ctx context.Context, stages []stage.Stage) ([]*entity.Agreement, error) {
	if m.listInStagesFunc != nil {
		return m.listInStagesFunc(ctx, stages)
	}
	return []*entity.Agreement{}, nil
}

func (m *mockAgreementRepo) ListActivePastEndDate(ctx context.Context, cutoff time.Time) ([]*entity.Agreement, error) {
	if m.listActivePastEndDateFunc != nil {
		return m.listActivePastEndDateFunc(ctx, cutoff)
	}
	return []*entity.Agreement{}, nil
}

type mockHistoryRepo struct {
	createFunc              func(ctx context.Context, history *entity.StageHistory) error
	getByAgreementIDFunc    func(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error)
	getLatestFunc           func(ctx context.Context, agreementID int64) (*entity.StageHistory, error)
	deleteByAgreementIDFunc func(ctx context.Context, agreementID int64) error
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.StageHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	return nil
}

func (m *mockHistoryRepo) GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error) {
	if m.getByAgreementIDFunc != nil {
		return m.getByAgreementIDFunc(ctx, agreementID)
	}
	return []*entity.StageHistory{}, nil
}

func (m *mockHistoryRepo) GetLatest(ctx context.Context, agreementID int64) (*entity.StageHistory, error) {
	if m.getLatestFunc != nil {
		return m.getLatestFunc(ctx, agreementID)
	}
	return &entity.StageHistory{AgreementID: agreementID, ChangedAt: time.Now()}, nil
}

func (m *mockHistoryRepo) DeleteByAgreementID(ctx context.Context, agreementID int64) error {
	if m.deleteByAgreementIDFunc != nil {
		return m.deleteByAgreementIDFunc(ctx, agreementID)
	}
	return nil
}

type mockApprovalRepo struct {
	createFunc           func(ctx context.Context, approval *entity.Approval) error
	getByIDFunc          func(ctx context.Context, id int64) (*entity.Approval, error)
	getByEntityFunc      func(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error)
	resolveIfPendingFunc func(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error)
	deleteByEntityFunc   func(ctx context.Context, workflowContext string, entityID int64) error
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *entity.Approval) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, approval)
	}
	approval.ID = 1
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Approval{ID: id, Status: entity.ApprovalPending}, nil
}

func (m *mockApprovalRepo) GetByEntity(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
	if m.getByEntityFunc != nil {
		return m.getByEntityFunc(ctx, workflowContext, entityID)
	}
	return []*entity.Approval{}, nil
}

func (m *mockApprovalRepo) ResolveIfPending(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error) {
	if m.resolveIfPendingFunc != nil {
		return m.resolveIfPendingFunc(ctx, id, status, approverID, comments, respondedAt)
	}
	return true, nil
}

func (m *mockApprovalRepo) DeleteByEntity(ctx context.Context, workflowContext string, entityID int64) error {
	if m.deleteByEntityFunc != nil {
		return m.deleteByEntityFunc(ctx, workflowContext, entityID)
	}
	return nil
}

type mockConfigRepo struct {
	replaceForAgreementFunc func(ctx context.Context, agreementID int64, configs []*entity.ApprovalConfig) error
	getByAgreementIDFunc    func(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error)
	deleteByAgreementIDFunc func(ctx context.Context, agreementID int64) error
}

func (m *mockConfigRepo) ReplaceForAgreement(ctx context.Context, agreementID int64, configs []*entity.ApprovalConfig) error {
	if m.replaceForAgreementFunc != nil {
		return m.replaceForAgreementFunc(ctx, agreementID, configs)
	}
	return nil
}

func (m *mockConfigRepo) GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error) {
	if m.getByAgreementIDFunc != nil {
		return m.getByAgreementIDFunc(ctx, agreementID)
	}
	return []*entity.ApprovalConfig{}, nil
}

func (m *mockConfigRepo) DeleteByAgreementID(ctx context.Context, agreementID int64) error {
	if m.deleteByAgreementIDFunc != nil {
		return m.deleteByAgreementIDFunc(ctx, agreementID)
	}
	return nil
}

type mockSLAConfigRepo struct {
	getByStageFunc func(ctx context.Context, s stage.Stage) (*entity.SLAConfig, error)
	listFunc       func(ctx context.Context) ([]*entity.SLAConfig, error)
}

func (m *mockSLAConfigRepo) GetByStage(ctx context.Context, s stage.Stage) (*entity.SLAConfig, error) {
	if m.getByStageFunc != nil {
		return m.getByStageFunc(ctx, s)
	}
	return nil, nil
}

func (m *mockSLAConfigRepo) List(ctx context.Context) ([]*entity.SLAConfig, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*entity.SLAConfig{}, nil
}

type mockLeadRepo struct {
	createFunc  func(ctx context.Context, lead *entity.Lead) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Lead, error)
	listFunc    func(ctx context.Context, limit, offset int) ([]*entity.Lead, error)
}

func (m *mockLeadRepo) Create(ctx context.Context, lead *entity.Lead) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, lead)
	}
	lead.ID = 1
	return nil
}

func (m *mockLeadRepo) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Lead{ID: id, Company: "Acme", AccountOwnerID: 10}, nil
}

func (m *mockLeadRepo) List(ctx context.Context, limit, offset int) ([]*entity.Lead, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*entity.Lead{}, nil
}

type mockUserRepo struct {
	getByIDFunc          func(ctx context.Context, id int64) (*entity.User, error)
	findByRoleFunc       func(ctx context.Context, role string) ([]*entity.User, error)
	findByDepartmentFunc func(ctx context.Context, departmentID int64) ([]*entity.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, IsActive: true}, nil
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role string) ([]*entity.User, error) {
	if m.findByRoleFunc != nil {
		return m.findByRoleFunc(ctx, role)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) FindByDepartment(ctx context.Context, departmentID int64) ([]*entity.User, error) {
	if m.findByDepartmentFunc != nil {
		return m.findByDepartmentFunc(ctx, departmentID)
	}
	return []*entity.User{}, nil
}

type mockRevisionRepo struct {
	createFunc     func(ctx context.Context, revision *entity.NegotiationRevision) error
	getByIDFunc    func(ctx context.Context, id int64) (*entity.NegotiationRevision, error)
	updateFunc     func(ctx context.Context, revision *entity.NegotiationRevision) error
	listByLeadFunc func(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error)
}

func (m *mockRevisionRepo) Create(ctx context.Context, revision *entity.NegotiationRevision) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, revision)
	}
	revision.ID = 1
	return nil
}

func (m *mockRevisionRepo) GetByID(ctx context.Context, id int64) (*entity.NegotiationRevision, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.NegotiationRevision{ID: id, Status: entity.RevisionPendingApproval}, nil
}

func (m *mockRevisionRepo) Update(ctx context.Context, revision *entity.NegotiationRevision) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, revision)
	}
	return nil
}

func (m *mockRevisionRepo) ListByLead(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error) {
	if m.listByLeadFunc != nil {
		return m.listByLeadFunc(ctx, leadID)
	}
	return []*entity.NegotiationRevision{}, nil
}

type mockNotifier struct {
	sendFunc func(ctx context.Context, notification *entity.Notification) error
	sent     []*entity.Notification
}

func (m *mockNotifier) Send(ctx context.Context, notification *entity.Notification) error {
	m.sent = append(m.sent, notification)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, notification)
	}
	return nil
}

type mockResolver struct {
	resolveFunc func(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error)
}

func (m *mockResolver) Resolve(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, approvalType, approverID, approverRole, departmentID)
	}
	if approverID != nil {
		return *approverID, nil
	}
	return 99, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
