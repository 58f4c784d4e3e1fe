package service

import (
	"context"
	"testing"
	"time"

	"caseflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpediente(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exp, err := env.workflow.CreateExpediente(ctx, CreateExpedienteRequest{
		CaseNumber:  "  exp-2024-001  ",
		OwnerName:   "Pedro Martinez",
		OwnerCedula: "00112345678",
		CreatedBy:   env.creator.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "EXP-2024-001", exp.CaseNumber)
	assert.Equal(t, domain.StatusInitiated, exp.Status)
	assert.Equal(t, env.states[0].ID, exp.CurrentStateID, "new cases start in the lowest-ordered state")
	assert.Equal(t, env.departments[0].ID, exp.CurrentDepartmentID, "new cases start in the first active department")
	assert.NotNil(t, exp.StartedAt)
	assert.Equal(t, 1, exp.Version)
}

func TestCreateExpedienteValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateExpedienteRequest
	}{
		{"short case number", CreateExpedienteRequest{CaseNumber: "AB", OwnerCedula: "00112345678"}},
		{"short cedula", CreateExpedienteRequest{CaseNumber: "EXP-001", OwnerCedula: "123"}},
		{"negative appraisal", CreateExpedienteRequest{CaseNumber: "EXP-001", OwnerCedula: "00112345678", AppraisalValue: -1}},
		{"negative land area", CreateExpedienteRequest{CaseNumber: "EXP-001", OwnerCedula: "00112345678", LandArea: -10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.CreatedBy = env.creator.ID
			_, err := env.workflow.CreateExpediente(ctx, tc.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestProposeTransitionRejectsSameState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	_, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID:   exp.ID,
		ToStateID:      exp.CurrentStateID,
		ToDepartmentID: &env.departments[1].ID,
		Actor:          env.creator.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestProposeTransitionRejectsSameDepartmentForNonFinalState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	// Destination department omitted: defaults to the current one.
	_, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID: exp.ID,
		ToStateID:    env.states[1].ID,
		Actor:        env.creator.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestProposeTransitionAllowsSameDepartmentForFinalState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	tr, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID: exp.ID,
		ToStateID:    env.states[3].ID, // Finalized
		Actor:        env.creator.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, exp.CurrentDepartmentID, tr.ToDepartmentID)

	got, err := env.workflow.GetExpediente(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestProposeTransitionRequiresRejectionReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	req := TransitionRequest{
		ExpedienteID: exp.ID,
		ToStateID:    env.states[4].ID, // Rejected
		Actor:        env.creator.ID,
	}
	_, err := env.workflow.ProposeTransition(ctx, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req.RejectionReason = "Property title is not registered"
	tr, err := env.workflow.ProposeTransition(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Property title is not registered", tr.RejectionReason)

	got, err := env.workflow.GetExpediente(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestProposeTransitionAppliesStateAndSideEffects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	tr, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID:   exp.ID,
		ToStateID:      env.states[1].ID,
		ToDepartmentID: &env.departments[1].ID,
		Actor:          env.creator.ID,
		Comments:       "Documentation complete, forwarding for legal review",
	})
	require.NoError(t, err)

	require.NotNil(t, tr.FromStateID)
	assert.Equal(t, env.states[0].ID, *tr.FromStateID)
	assert.Equal(t, env.states[1].ID, tr.ToStateID)
	assert.False(t, tr.Automatic)

	got, err := env.workflow.GetExpediente(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInReview, got.Status)
	assert.Equal(t, env.departments[1].ID, got.CurrentDepartmentID)
	assert.Equal(t, 2, got.Version)

	// Legal has AutoCreateTasks: exactly one review task with the
	// department's response deadline.
	tasks, err := env.tasks.ListByExpediente(ctx, exp.ID, taskFilterAll())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TypeReview, tasks[0].Type)
	assert.Equal(t, domain.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, env.departments[1].ID, tasks[0].DepartmentID)
	require.NotNil(t, tasks[0].DueAt)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), *tasks[0].DueAt, time.Minute)

	// Only the active legal user is notified.
	updates := env.notifier.byKind(domain.NotificationWorkflowUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, env.legalAnalyst.ID, updates[0].UserID)
}

func TestProposeTransitionSkipsAutoTaskForDepartmentsWithoutFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	// Move the case to Legal first so Reception is a valid destination.
	_, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID:   exp.ID,
		ToStateID:      env.states[1].ID,
		ToDepartmentID: &env.departments[1].ID,
		Actor:          env.creator.ID,
	})
	require.NoError(t, err)

	_, err = env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID:   exp.ID,
		ToStateID:      env.states[2].ID,
		ToDepartmentID: &env.departments[0].ID, // Reception: AutoCreateTasks off
		Actor:          env.creator.ID,
	})
	require.NoError(t, err)

	tasks, err := env.tasks.ListByExpediente(ctx, exp.ID, taskFilterAll())
	require.NoError(t, err)
	require.Len(t, tasks, 1, "only the Legal auto task should exist")
	assert.Equal(t, env.departments[1].ID, tasks[0].DepartmentID)
}

func TestAvailableNextStatesBoundedLookahead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	states, err := env.workflow.AvailableNextStates(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, states, 3, "lookahead is capped at 3")
	assert.Equal(t, env.states[1].ID, states[0].ID)
	assert.Equal(t, env.states[2].ID, states[1].ID)
	assert.Equal(t, env.states[3].ID, states[2].ID)
}

func TestAvailableNextStatesEmptyForFinalState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	_, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID: exp.ID,
		ToStateID:    env.states[3].ID,
		Actor:        env.creator.ID,
	})
	require.NoError(t, err)

	states, err := env.workflow.AvailableNextStates(ctx, exp.ID)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestAvailableNextDepartmentsSkipsInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	departments, err := env.workflow.AvailableNextDepartments(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, departments, 2, "inactive Archive department is excluded")
	assert.Equal(t, env.departments[1].ID, departments[0].ID)
	assert.Equal(t, env.departments[2].ID, departments[1].ID)
}

func TestAdvanceIfAllTasksDone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	require.NoError(t, env.workflow.AdvanceIfAllTasksDone(ctx, exp.ID))

	got, err := env.workflow.GetExpediente(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, env.states[1].ID, got.CurrentStateID, "advances exactly one state")
	assert.Equal(t, exp.CurrentDepartmentID, got.CurrentDepartmentID, "department does not change")

	history, err := env.workflow.History(ctx, exp.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Automatic)
	assert.Equal(t, env.creator.ID, history[0].ActorID)
}

func TestAdvanceIfAllTasksDoneIsNoOpWithOpenTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)
	env.createTask(t, exp, "Verify cadastral records")

	require.NoError(t, env.workflow.AdvanceIfAllTasksDone(ctx, exp.ID))

	got, err := env.workflow.GetExpediente(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.CurrentStateID, got.CurrentStateID)
	assert.Equal(t, 1, got.Version)
}

func TestAdvanceIfAllTasksDoneIsNoOpOnFinalState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	_, err := env.workflow.ProposeTransition(ctx, TransitionRequest{
		ExpedienteID: exp.ID,
		ToStateID:    env.states[3].ID,
		Actor:        env.creator.ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.workflow.AdvanceIfAllTasksDone(ctx, exp.ID))

	history, err := env.workflow.History(ctx, exp.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "no automatic transition past a final state")
}

func TestSoftDeletedExpedienteDisappears(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)

	require.NoError(t, env.workflow.DeleteExpediente(ctx, exp.ID))

	_, err := env.workflow.GetExpediente(ctx, exp.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err := env.workflow.ListExpedientes(ctx, listAll())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWorkflowContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exp := env.createExpediente(t)
	env.createTask(t, exp, "Verify cadastral records")

	wc, err := env.workflow.WorkflowContext(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.ID, wc.Expediente.ID)
	assert.Len(t, wc.OpenTasks, 1)
	assert.Len(t, wc.NextStates, 3)
	assert.Len(t, wc.NextDepartments, 2)
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createExpediente(t)
	env.createExpediente(t)

	analytics, err := env.workflow.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalExpedientes)
	assert.Equal(t, int64(2), analytics.ExpedientesByStatus[string(domain.StatusInitiated)])
	assert.Equal(t, int64(2), analytics.ExpedientesByDepartment["Reception"])
}

func TestDepartmentStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createExpediente(t)

	stats, err := env.workflow.DepartmentStatistics(ctx, env.departments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Legal", stats.Department.Name)
	assert.Equal(t, int64(1), stats.ActiveUsers, "inactive users are not counted")
}
