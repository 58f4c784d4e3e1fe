package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"caseflow/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Department{},
		&domain.WorkflowState{},
		&domain.User{},
		&domain.Expediente{},
		&domain.Transition{},
		&domain.Task{},
		&domain.TaskDependency{},
	))
	return db
}

func seedReference(t *testing.T, db *gorm.DB) (states []domain.WorkflowState, departments []domain.Department) {
	t.Helper()
	departments = []domain.Department{
		{ID: uuid.New(), Name: "Reception", Code: "RECEPCION", WorkflowOrder: 1, IsActive: true},
		{ID: uuid.New(), Name: "Legal", Code: "JURIDICO", WorkflowOrder: 2, IsActive: true},
	}
	require.NoError(t, db.Create(&departments).Error)

	states = []domain.WorkflowState{
		{ID: uuid.New(), Name: "Submitted", Order: 1, CaseStatus: domain.StatusInitiated},
		{ID: uuid.New(), Name: "In Review", Order: 2, CaseStatus: domain.StatusInReview},
	}
	require.NoError(t, db.Create(&states).Error)
	return states, departments
}

func seedExpediente(t *testing.T, db *gorm.DB, state *domain.WorkflowState, department *domain.Department) *domain.Expediente {
	t.Helper()
	exp := domain.NewExpediente(fmt.Sprintf("EXP-%s", uuid.NewString()[:8]), uuid.New(), state, department)
	exp.OwnerName = "Pedro Martinez"
	exp.OwnerCedula = "00112345678"
	require.NoError(t, db.Create(exp).Error)
	return exp
}

// Two writers racing on the same expediente version: the second one, holding
// a stale version, must get ErrConcurrentUpdate and leave no transition row
// behind.
func TestApplyTransitionVersionConflict(t *testing.T) {
	db := openTestDB(t)
	states, departments := seedReference(t, db)
	repo := NewExpedienteRepository(db)
	ctx := context.Background()

	exp := seedExpediente(t, db, &states[0], &departments[0])
	staleVersion := exp.Version

	makeTransition := func() (*domain.Expediente, *domain.Transition) {
		copied := *exp
		fromState := copied.CurrentStateID
		fromDept := copied.CurrentDepartmentID
		copied.CurrentStateID = states[1].ID
		copied.CurrentDepartmentID = departments[1].ID
		copied.Status = domain.StatusInReview
		return &copied, &domain.Transition{
			ID:               uuid.New(),
			ExpedienteID:     copied.ID,
			FromStateID:      &fromState,
			ToStateID:        states[1].ID,
			FromDepartmentID: &fromDept,
			ToDepartmentID:   departments[1].ID,
			ActorID:          uuid.New(),
		}
	}

	first, tr1 := makeTransition()
	require.NoError(t, repo.ApplyTransition(ctx, first, tr1, nil, staleVersion))
	assert.Equal(t, staleVersion+1, first.Version)

	second, tr2 := makeTransition()
	err := repo.ApplyTransition(ctx, second, tr2, nil, staleVersion)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	var transitionCount int64
	require.NoError(t, db.Model(&domain.Transition{}).Where("expediente_id = ?", exp.ID).Count(&transitionCount).Error)
	assert.Equal(t, int64(1), transitionCount, "losing transition rolls back with its transaction")
}

func TestTaskUpdateStatusVersionConflict(t *testing.T) {
	db := openTestDB(t)
	states, departments := seedReference(t, db)
	exp := seedExpediente(t, db, &states[0], &departments[0])
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := domain.NewTask(exp.ID, departments[0].ID, "Verify records")
	require.NoError(t, repo.Create(ctx, task))

	stale := *task
	require.NoError(t, repo.UpdateStatus(ctx, task, domain.TaskInProgress, false, task.Version))

	err := repo.UpdateStatus(ctx, &stale, domain.TaskCancelled, false, stale.Version)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
}

func TestAddDependencySerializesOnCaseVersion(t *testing.T) {
	db := openTestDB(t)
	states, departments := seedReference(t, db)
	exp := seedExpediente(t, db, &states[0], &departments[0])
	repo := NewTaskRepository(db)
	ctx := context.Background()

	a := domain.NewTask(exp.ID, departments[0].ID, "A")
	b := domain.NewTask(exp.ID, departments[0].ID, "B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	staleVersion := exp.Version
	require.NoError(t, repo.AddDependency(ctx, domain.NewTaskDependency(b.ID, a.ID, ""), exp.ID, staleVersion))

	// A competing insert that read the case before the first commit loses.
	err := repo.AddDependency(ctx, domain.NewTaskDependency(a.ID, b.ID, ""), exp.ID, staleVersion)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	// Retried with the fresh version, the cycle check takes over.
	err = repo.AddDependency(ctx, domain.NewTaskDependency(a.ID, b.ID, ""), exp.ID, staleVersion+1)
	assert.ErrorIs(t, err, domain.ErrCircularDependency)
}

func TestCompleteReportsReadyDependentsAndRemainingWork(t *testing.T) {
	db := openTestDB(t)
	states, departments := seedReference(t, db)
	exp := seedExpediente(t, db, &states[0], &departments[0])
	repo := NewTaskRepository(db)
	ctx := context.Background()

	a := domain.NewTask(exp.ID, departments[0].ID, "A")
	b := domain.NewTask(exp.ID, departments[0].ID, "B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.AddDependency(ctx, domain.NewTaskDependency(b.ID, a.ID, ""), exp.ID, exp.Version))

	actorID := uuid.New()
	result, err := repo.Complete(ctx, a, actorID, "reviewed", a.Version)
	require.NoError(t, err)

	require.Len(t, result.ReadyDependents, 1)
	assert.Equal(t, b.ID, result.ReadyDependents[0].ID)
	assert.Equal(t, int64(1), result.OpenRemaining, "B itself is still open")
	assert.Equal(t, domain.TaskCompleted, a.Status)
	require.NotNil(t, a.AssignedUserID)
	assert.Equal(t, actorID, *a.AssignedUserID)
}
