package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"
	"caseflow/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// nextLookahead bounds the "what's next" queries: up to 3 states or
// departments past the current one, in ascending order.
const nextLookahead = 3

const autoAdvanceComment = "Automatic transition: all tasks completed"

// WorkflowService owns the expediente state machine: creation, validated
// transitions with an immutable audit trail, bounded lookahead queries and
// automatic advancement when every task of a case is done.
type WorkflowService struct {
	expedientes ports.ExpedienteRepository
	tasks       ports.TaskRepository
	refs        ports.ReferenceRepository
	users       ports.UserRepository
	notifier    ports.Notifier
	log         *zap.Logger
}

func NewWorkflowService(
	expedientes ports.ExpedienteRepository,
	tasks ports.TaskRepository,
	refs ports.ReferenceRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	log *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		expedientes: expedientes,
		tasks:       tasks,
		refs:        refs,
		users:       users,
		notifier:    notifier,
		log:         log,
	}
}

// CreateExpedienteRequest carries the fields a caller provides when opening
// a new case. State and department are always assigned by the engine.
type CreateExpedienteRequest struct {
	CaseNumber       string
	OwnerName        string
	OwnerCedula      string
	Address          string
	Municipality     string
	Province         string
	LandArea         float64
	ConstructionArea float64
	AppraisalValue   float64
	Metadata         datatypes.JSON
	CreatedBy        uuid.UUID
}

// CreateExpediente validates the request and opens the case in the
// lowest-ordered workflow state and the first active department.
func (s *WorkflowService) CreateExpediente(ctx context.Context, req CreateExpedienteRequest) (*domain.Expediente, error) {
	caseNumber := strings.ToUpper(strings.TrimSpace(req.CaseNumber))
	if len(caseNumber) < 3 {
		return nil, fmt.Errorf("%w: case number must have at least 3 characters", domain.ErrValidation)
	}
	if len(strings.TrimSpace(req.OwnerCedula)) < 11 {
		return nil, fmt.Errorf("%w: cedula must have at least 11 characters", domain.ErrValidation)
	}
	if req.LandArea < 0 || req.ConstructionArea < 0 || req.AppraisalValue < 0 {
		return nil, fmt.Errorf("%w: areas and appraisal value cannot be negative", domain.ErrValidation)
	}

	state, err := s.refs.FirstState(ctx)
	if err != nil {
		return nil, err
	}
	department, err := s.refs.FirstActiveDepartment(ctx)
	if err != nil {
		return nil, err
	}

	exp := domain.NewExpediente(caseNumber, req.CreatedBy, state, department)
	exp.OwnerName = strings.TrimSpace(req.OwnerName)
	exp.OwnerCedula = strings.TrimSpace(req.OwnerCedula)
	exp.Address = req.Address
	exp.Municipality = req.Municipality
	exp.Province = req.Province
	exp.LandArea = req.LandArea
	exp.ConstructionArea = req.ConstructionArea
	exp.AppraisalValue = req.AppraisalValue
	exp.Metadata = req.Metadata

	if err := s.expedientes.Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *WorkflowService) GetExpediente(ctx context.Context, id uuid.UUID) (*domain.Expediente, error) {
	return s.expedientes.GetByID(ctx, id)
}

func (s *WorkflowService) ListExpedientes(ctx context.Context, filter ports.ExpedienteFilter) ([]domain.Expediente, int64, error) {
	return s.expedientes.List(ctx, filter)
}

func (s *WorkflowService) DeleteExpediente(ctx context.Context, id uuid.UUID) error {
	return s.expedientes.SoftDelete(ctx, id)
}

// TransitionRequest is a manual transition proposed by an actor.
type TransitionRequest struct {
	ExpedienteID    uuid.UUID
	ToStateID       uuid.UUID
	ToDepartmentID  *uuid.UUID
	Actor           uuid.UUID
	Comments        string
	RejectionReason string
	Metadata        datatypes.JSON
}

// ProposeTransition validates and applies a workflow transition. The from
// state and department are captured from the expediente and committed
// together with the pointer update under a version guard, so concurrent
// proposals on the same case cannot both succeed. Notifications to the
// destination department are published after commit, best-effort.
func (s *WorkflowService) ProposeTransition(ctx context.Context, req TransitionRequest) (*domain.Transition, error) {
	exp, err := s.expedientes.GetByID(ctx, req.ExpedienteID)
	if err != nil {
		return nil, err
	}

	toState, err := s.refs.GetState(ctx, req.ToStateID)
	if err != nil {
		return nil, err
	}

	toDepartmentID := exp.CurrentDepartmentID
	if req.ToDepartmentID != nil {
		toDepartmentID = *req.ToDepartmentID
	}
	toDepartment, err := s.refs.GetDepartment(ctx, toDepartmentID)
	if err != nil {
		return nil, err
	}

	if toState.ID == exp.CurrentStateID {
		return nil, fmt.Errorf("%w: cannot transition to the current state", domain.ErrInvalidTransition)
	}
	if !toState.IsFinal && toDepartment.ID == exp.CurrentDepartmentID {
		return nil, fmt.Errorf("%w: destination department must differ", domain.ErrInvalidTransition)
	}
	if toState.CaseStatus == domain.StatusRejected && strings.TrimSpace(req.RejectionReason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required when rejecting", domain.ErrValidation)
	}

	tr := s.buildTransition(exp, toState, toDepartment, req.Actor, false)
	tr.Comments = req.Comments
	tr.RejectionReason = req.RejectionReason
	tr.Metadata = req.Metadata

	var autoTask *domain.Task
	if toDepartment.AutoCreateTasks {
		autoTask = s.defaultReviewTask(exp, toDepartment)
	}

	if err := s.expedientes.ApplyTransition(ctx, exp, tr, autoTask, exp.Version); err != nil {
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues("manual").Inc()

	s.notifyDepartment(ctx, exp, toState, toDepartment)
	return tr, nil
}

// AvailableNextStates returns up to 3 states with strictly greater order than
// the case's current one; empty when the current state is final.
func (s *WorkflowService) AvailableNextStates(ctx context.Context, expedienteID uuid.UUID) ([]domain.WorkflowState, error) {
	exp, err := s.expedientes.GetByID(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	current, err := s.refs.GetState(ctx, exp.CurrentStateID)
	if err != nil {
		return nil, err
	}
	if current.IsFinal {
		return []domain.WorkflowState{}, nil
	}
	return s.refs.NextStates(ctx, current.Order, nextLookahead)
}

// AvailableNextDepartments returns up to 3 active departments further along
// the pipeline than the case's current one.
func (s *WorkflowService) AvailableNextDepartments(ctx context.Context, expedienteID uuid.UUID) ([]domain.Department, error) {
	exp, err := s.expedientes.GetByID(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	current, err := s.refs.GetDepartment(ctx, exp.CurrentDepartmentID)
	if err != nil {
		return nil, err
	}
	return s.refs.NextDepartments(ctx, current.WorkflowOrder, nextLookahead)
}

// AdvanceIfAllTasksDone performs one automatic transition to the
// next-ordered state when the case has no open tasks left. Same department,
// attributed to the case creator, through the same apply path as manual
// transitions. No-op when tasks remain open, the state is final, or no
// higher-ordered state exists.
func (s *WorkflowService) AdvanceIfAllTasksDone(ctx context.Context, expedienteID uuid.UUID) error {
	exp, err := s.expedientes.GetByID(ctx, expedienteID)
	if err != nil {
		return err
	}

	current, err := s.refs.GetState(ctx, exp.CurrentStateID)
	if err != nil {
		return err
	}
	if current.IsFinal {
		return nil
	}

	open, err := s.tasks.CountOpen(ctx, exp.ID)
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	next, err := s.refs.NextState(ctx, current.Order)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	department, err := s.refs.GetDepartment(ctx, exp.CurrentDepartmentID)
	if err != nil {
		return err
	}

	tr := s.buildTransition(exp, next, department, exp.CreatedByID, true)
	tr.Comments = autoAdvanceComment

	if err := s.expedientes.ApplyTransition(ctx, exp, tr, nil, exp.Version); err != nil {
		return err
	}
	metrics.TransitionsTotal.WithLabelValues("automatic").Inc()
	return nil
}

// History returns the expediente's transitions, newest first.
func (s *WorkflowService) History(ctx context.Context, expedienteID uuid.UUID, limit, offset int) ([]domain.Transition, error) {
	if _, err := s.expedientes.GetByID(ctx, expedienteID); err != nil {
		return nil, err
	}
	return s.expedientes.ListTransitions(ctx, expedienteID, limit, offset)
}

// WorkflowContext bundles the expediente with its recent activity and the
// bounded lookahead, for the case detail view.
type WorkflowContext struct {
	Expediente        *domain.Expediente     `json:"expediente"`
	RecentTransitions []domain.Transition    `json:"recent_transitions"`
	OpenTasks         []domain.Task          `json:"open_tasks"`
	NextStates        []domain.WorkflowState `json:"next_states"`
	NextDepartments   []domain.Department    `json:"next_departments"`
}

func (s *WorkflowService) WorkflowContext(ctx context.Context, expedienteID uuid.UUID) (*WorkflowContext, error) {
	exp, err := s.expedientes.GetByID(ctx, expedienteID)
	if err != nil {
		return nil, err
	}

	transitions, err := s.expedientes.ListTransitions(ctx, expedienteID, 10, 0)
	if err != nil {
		return nil, err
	}

	allTasks, err := s.tasks.ListByExpediente(ctx, expedienteID, ports.TaskFilter{})
	if err != nil {
		return nil, err
	}
	openTasks := make([]domain.Task, 0, len(allTasks))
	for _, t := range allTasks {
		if t.IsOpen() {
			openTasks = append(openTasks, t)
		}
	}

	nextStates, err := s.AvailableNextStates(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	nextDepartments, err := s.AvailableNextDepartments(ctx, expedienteID)
	if err != nil {
		return nil, err
	}

	return &WorkflowContext{
		Expediente:        exp,
		RecentTransitions: transitions,
		OpenTasks:         openTasks,
		NextStates:        nextStates,
		NextDepartments:   nextDepartments,
	}, nil
}

// Analytics summarizes case and task distribution for reporting.
type Analytics struct {
	TotalExpedientes        int64            `json:"total_expedientes"`
	ExpedientesByStatus     map[string]int64 `json:"expedientes_by_status"`
	ExpedientesByDepartment map[string]int64 `json:"expedientes_by_department"`
	TasksByStatus           map[string]int64 `json:"tasks_by_status"`
}

func (s *WorkflowService) Analytics(ctx context.Context) (*Analytics, error) {
	total, err := s.expedientes.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.expedientes.CountsByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.expedientes.CountsByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	tasksByStatus, err := s.tasks.CountsByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		TotalExpedientes:        total,
		ExpedientesByStatus:     byStatus,
		ExpedientesByDepartment: byDepartment,
		TasksByStatus:           tasksByStatus,
	}, nil
}

// DepartmentStatistics summarizes a single department's workload.
type DepartmentStatistics struct {
	Department          *domain.Department `json:"department"`
	ExpedientesByStatus map[string]int64   `json:"expedientes_by_status"`
	TasksByStatus       map[string]int64   `json:"tasks_by_status"`
	ActiveUsers         int64              `json:"active_users"`
}

func (s *WorkflowService) DepartmentStatistics(ctx context.Context, departmentID uuid.UUID) (*DepartmentStatistics, error) {
	department, err := s.refs.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.expedientes.CountsByStatus(ctx, &departmentID)
	if err != nil {
		return nil, err
	}
	tasksByStatus, err := s.tasks.CountsByStatus(ctx, &departmentID)
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.users.CountActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return &DepartmentStatistics{
		Department:          department,
		ExpedientesByStatus: byStatus,
		TasksByStatus:       tasksByStatus,
		ActiveUsers:         activeUsers,
	}, nil
}

// buildTransition captures the from-pointers and mutates the expediente copy
// to its post-transition shape: pointers, coarse status via the state's
// explicit mapping, and the completion stamp kept consistent with it.
func (s *WorkflowService) buildTransition(exp *domain.Expediente, toState *domain.WorkflowState, toDepartment *domain.Department, actor uuid.UUID, automatic bool) *domain.Transition {
	fromState := exp.CurrentStateID
	fromDepartment := exp.CurrentDepartmentID

	tr := &domain.Transition{
		ID:               uuid.New(),
		ExpedienteID:     exp.ID,
		FromStateID:      &fromState,
		ToStateID:        toState.ID,
		FromDepartmentID: &fromDepartment,
		ToDepartmentID:   toDepartment.ID,
		ActorID:          actor,
		Automatic:        automatic,
	}

	exp.CurrentStateID = toState.ID
	exp.CurrentDepartmentID = toDepartment.ID
	exp.Status = toState.CaseStatus
	if toState.CaseStatus == domain.StatusCompleted {
		now := time.Now()
		exp.CompletedAt = &now
	} else {
		exp.CompletedAt = nil
	}
	return tr
}

func (s *WorkflowService) defaultReviewTask(exp *domain.Expediente, department *domain.Department) *domain.Task {
	task := domain.NewTask(exp.ID, department.ID, "Review at "+department.Name)
	task.Description = "Review expediente " + exp.CaseNumber + " in " + department.Name
	task.Type = domain.TypeReview
	task.Priority = domain.PriorityHigh
	due := department.ResponseDeadline(time.Now())
	task.DueAt = &due
	return task
}

// notifyDepartment fans out a workflow_update to every active user of the
// destination department. Failures are logged, never propagated.
func (s *WorkflowService) notifyDepartment(ctx context.Context, exp *domain.Expediente, toState *domain.WorkflowState, toDepartment *domain.Department) {
	users, err := s.users.ListActiveByDepartment(ctx, toDepartment.ID)
	if err != nil {
		s.log.Warn("failed to list department users for notification", zap.Error(err))
		return
	}

	expedienteID := exp.ID
	message := fmt.Sprintf("Expediente %s has been transferred to your department. Current state: %s",
		exp.CaseNumber, toState.Name)
	for _, u := range users {
		n := domain.NewNotification(u.ID, &expedienteID, domain.NotificationWorkflowUpdate,
			"Expediente transition", message)
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warn("failed to publish transition notification", zap.Error(err))
		}
	}
}
