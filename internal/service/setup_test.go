package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"caseflow/internal/core/ports"
	"caseflow/internal/core/postgres/repository"
	"caseflow/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// fakeNotifier records published notifications in memory.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *n)
	return nil
}

func (f *fakeNotifier) Subscribe(_ context.Context) (<-chan domain.Notification, error) {
	return make(chan domain.Notification), nil
}

func (f *fakeNotifier) byKind(kind domain.NotificationKind) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	notifier *fakeNotifier
	workflow *WorkflowService
	tasks    *TaskService

	// seeded reference data, ascending by order
	states      []domain.WorkflowState
	departments []domain.Department

	creator       domain.User
	legalAnalyst  domain.User
	legalInactive domain.User
	techAnalyst   domain.User
}

// newTestEnv opens a fresh in-memory database, migrates the schema and seeds
// a four-department pipeline with five workflow states.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:caseflow_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
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
		&domain.Notification{},
	))

	env := &testEnv{db: db, notifier: &fakeNotifier{}}

	env.departments = []domain.Department{
		{ID: uuid.New(), Name: "Reception", Code: "RECEPCION", WorkflowOrder: 1, ResponseTimeHours: 48, IsActive: true},
		{ID: uuid.New(), Name: "Legal", Code: "JURIDICO", WorkflowOrder: 2, ResponseTimeHours: 72, AutoCreateTasks: true, IsActive: true},
		{ID: uuid.New(), Name: "Technical", Code: "TECNICO", WorkflowOrder: 3, ResponseTimeHours: 48, AutoCreateTasks: true, IsActive: true},
		{ID: uuid.New(), Name: "Archive", Code: "ARCHIVO", WorkflowOrder: 4, ResponseTimeHours: 24, IsActive: false},
	}
	require.NoError(t, db.Create(&env.departments).Error)
	// The default:true tag makes GORM drop zero-value IsActive on insert,
	// so persist the inactive flag explicitly.
	require.NoError(t, db.Model(&domain.Department{}).Where("id = ?", env.departments[3].ID).Update("is_active", false).Error)

	env.states = []domain.WorkflowState{
		{ID: uuid.New(), Name: "Submitted", Order: 1, CaseStatus: domain.StatusInitiated},
		{ID: uuid.New(), Name: "Legal Review", Order: 2, CaseStatus: domain.StatusInReview},
		{ID: uuid.New(), Name: "Approved", Order: 3, CaseStatus: domain.StatusApproved},
		{ID: uuid.New(), Name: "Finalized", Order: 4, CaseStatus: domain.StatusCompleted, IsFinal: true},
		{ID: uuid.New(), Name: "Rejected", Order: 5, CaseStatus: domain.StatusRejected, IsFinal: true},
	}
	require.NoError(t, db.Create(&env.states).Error)

	env.creator = domain.User{
		ID: uuid.New(), FirstName: "Ana", LastName: "Reyes", Email: "ana@example.gob.do",
		Cedula: "00100000001", Role: domain.RoleAnalyst, DepartmentID: &env.departments[0].ID, IsActive: true,
	}
	env.legalAnalyst = domain.User{
		ID: uuid.New(), FirstName: "Luis", LastName: "Pena", Email: "luis@example.gob.do",
		Cedula: "00100000002", Role: domain.RoleAnalyst, DepartmentID: &env.departments[1].ID, IsActive: true,
	}
	env.legalInactive = domain.User{
		ID: uuid.New(), FirstName: "Marta", LastName: "Gomez", Email: "marta@example.gob.do",
		Cedula: "00100000003", Role: domain.RoleAnalyst, DepartmentID: &env.departments[1].ID, IsActive: false,
	}
	env.techAnalyst = domain.User{
		ID: uuid.New(), FirstName: "Jose", LastName: "Cruz", Email: "jose@example.gob.do",
		Cedula: "00100000004", Role: domain.RoleAnalyst, DepartmentID: &env.departments[2].ID, IsActive: true,
	}
	require.NoError(t, db.Create(&[]domain.User{env.creator, env.legalAnalyst, env.legalInactive, env.techAnalyst}).Error)
	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", env.legalInactive.ID).Update("is_active", false).Error)

	expedienteRepo := repository.NewExpedienteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	userRepo := repository.NewUserRepository(db)

	log := zap.NewNop()
	env.workflow = NewWorkflowService(expedienteRepo, taskRepo, referenceRepo, userRepo, env.notifier, log)
	env.tasks = NewTaskService(taskRepo, expedienteRepo, referenceRepo, userRepo, env.workflow, env.notifier, log)

	return env
}

func (e *testEnv) createExpediente(t *testing.T) *domain.Expediente {
	t.Helper()
	exp, err := e.workflow.CreateExpediente(context.Background(), CreateExpedienteRequest{
		CaseNumber:     fmt.Sprintf("EXP-%s", uuid.NewString()[:8]),
		OwnerName:      "Pedro Martinez",
		OwnerCedula:    "00112345678",
		Municipality:   "Santo Domingo Este",
		Province:       "Santo Domingo",
		LandArea:       350.5,
		AppraisalValue: 1_250_000,
		CreatedBy:      e.creator.ID,
	})
	require.NoError(t, err)
	return exp
}

func taskFilterAll() ports.TaskFilter {
	return ports.TaskFilter{}
}

func listAll() ports.ExpedienteFilter {
	return ports.ExpedienteFilter{}
}

func (e *testEnv) createTask(t *testing.T, exp *domain.Expediente, title string) *domain.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), CreateTaskRequest{
		ExpedienteID: exp.ID,
		Title:        title,
	})
	require.NoError(t, err)
	return task
}
