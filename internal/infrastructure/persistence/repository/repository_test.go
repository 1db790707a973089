package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/service"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/infrastructure/persistence/sqlite"
	"github.com/dealdesk/dealdesk/pkg/database"
)

// openTestDB runs the real migrations against an in-memory sqlite database.
// A single connection keeps every statement on the same in-memory instance.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations("../../../../migrations"))
	return db
}

type quietLogger struct{}

func (quietLogger) Info(msg string, keysAndValues ...interface{})  {}
func (quietLogger) Error(msg string, keysAndValues ...interface{}) {}

func seedLead(t *testing.T, db *database.DB) *entity.Lead {
	t.Helper()
	// account owner 2 (Ops Admin) comes from the directory seed migration
	lead := &entity.Lead{Company: "Acme Corp", AccountOwnerID: 2}
	require.NoError(t, NewLeadRepository(db.DB, zap.NewNop()).Create(context.Background(), lead))
	return lead
}

func countRows(t *testing.T, db *database.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestApprovalRepository_ResolveIfPending_AtMostOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewApprovalRepository(db.DB, zap.NewNop())
	lead := seedLead(t, db)

	approval := &entity.Approval{
		Context:       entity.ContextAgreement,
		EntityID:      42,
		LeadID:        lead.ID,
		StageName:     "approval-1",
		ApproverRole:  "FINANCE",
		IsMandatory:   true,
		SequenceOrder: 1,
		Status:        entity.ApprovalPending,
		RequestedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, approval))
	require.NotZero(t, approval.ID)

	actor := int64(3)
	now := time.Now()

	won, err := repo.ResolveIfPending(ctx, approval.ID, entity.ApprovalApproved, &actor, "looks good", now)
	require.NoError(t, err)
	assert.True(t, won, "first resolution should win")

	lost, err := repo.ResolveIfPending(ctx, approval.ID, entity.ApprovalRejected, &actor, "changed my mind", now)
	require.NoError(t, err)
	assert.False(t, lost, "second resolution must lose the compare-and-set")

	got, err := repo.GetByID(ctx, approval.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.ApprovalApproved, got.Status, "stored row keeps the winner's status")
	assert.Equal(t, "looks good", got.Comments)
	require.NotNil(t, got.RespondedAt)
}

func TestApprovalRepository_GetByEntity_OrderedBySequence(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewApprovalRepository(db.DB, zap.NewNop())
	lead := seedLead(t, db)

	// insert out of order; reads must come back by sequence
	for _, seq := range []int{3, 1, 2} {
		a := &entity.Approval{
			Context:       entity.ContextAgreement,
			EntityID:      7,
			LeadID:        lead.ID,
			StageName:     "approval",
			ApproverRole:  "CEO",
			IsMandatory:   true,
			SequenceOrder: seq,
			Status:        entity.ApprovalPending,
			RequestedAt:   time.Now(),
		}
		require.NoError(t, repo.Create(ctx, a))
	}

	approvals, err := repo.GetByEntity(ctx, entity.ContextAgreement, 7)
	require.NoError(t, err)
	require.Len(t, approvals, 3)
	for i, a := range approvals {
		assert.Equal(t, i+1, a.SequenceOrder)
	}
}

// TestAgreementRemove_PurgesSatelliteRows wires the real repositories and the
// shared-transaction manager together and checks that removing a draft
// agreement leaves no history, config, or approval rows behind.
func TestAgreementRemove_PurgesSatelliteRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	zlog := zap.NewNop()

	agreementRepo := NewAgreementRepository(db.DB, zlog)
	historyRepo := NewStageHistoryRepository(db.DB, zlog)
	approvalRepo := NewApprovalRepository(db.DB, zlog)
	configRepo := NewApprovalConfigRepository(db.DB, zlog)
	leadRepo := NewLeadRepository(db.DB, zlog)
	userRepo := NewUserRepository(db.DB, zlog)

	txManager := sqlite.NewDB(db.DB, zlog)
	logger := quietLogger{}

	resolver := service.NewApproverResolver(userRepo, logger)
	approvalSvc := service.NewApprovalService(approvalRepo, userRepo, resolver, txManager, logger)
	agreementSvc := service.NewAgreementService(agreementRepo, historyRepo, approvalRepo, configRepo, leadRepo, approvalSvc, txManager, logger)
	flowSvc := service.NewApprovalConfigService(configRepo, agreementRepo, txManager, logger)

	lead := seedLead(t, db)

	agreement, err := agreementSvc.Create(ctx, service.CreateAgreementParams{
		LeadID:        lead.ID,
		Title:         "Supply contract",
		ContractValue: 120000,
		CreatedBy:     2,
	})
	require.NoError(t, err)

	ceo := int64(1)
	_, err = flowSvc.DefineFlow(ctx, agreement.ID, []service.FlowEntry{
		{SequenceOrder: 1, ApprovalType: entity.ApprovalTypeUser, ApproverID: &ceo, IsMandatory: true},
		{SequenceOrder: 2, ApprovalType: entity.ApprovalTypeRole, ApproverRole: "FINANCE", IsMandatory: true},
	})
	require.NoError(t, err)

	approvals, err := agreementSvc.SendForApproval(ctx, agreement.ID, 2)
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM agreement_stage_history WHERE agreement_id = ?", agreement.ID))
	require.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM agreement_approval_configs WHERE agreement_id = ?", agreement.ID))
	require.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM approvals WHERE context = ? AND entity_id = ?", entity.ContextAgreement, agreement.ID))

	require.NoError(t, agreementSvc.Remove(ctx, agreement.ID))

	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM agreement_stage_history WHERE agreement_id = ?", agreement.ID))
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM agreement_approval_configs WHERE agreement_id = ?", agreement.ID))
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM approvals WHERE context = ? AND entity_id = ?", entity.ContextAgreement, agreement.ID))

	gone, err := agreementRepo.GetByID(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
