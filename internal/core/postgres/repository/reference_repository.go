package repository

import (
	"context"
	"errors"
	"fmt"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a gorm-backed ReferenceRepository.
func NewReferenceRepository(db *gorm.DB) ports.ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) GetState(ctx context.Context, id uuid.UUID) (*domain.WorkflowState, error) {
	var state domain.WorkflowState
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("workflow state %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *referenceRepository) GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("department %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *referenceRepository) FirstState(ctx context.Context) (*domain.WorkflowState, error) {
	var state domain.WorkflowState
	err := r.db.WithContext(ctx).Order("sort_order").First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("initial workflow state: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *referenceRepository) FirstActiveDepartment(ctx context.Context) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("workflow_order").First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("initial department: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *referenceRepository) NextState(ctx context.Context, afterOrder int) (*domain.WorkflowState, error) {
	var state domain.WorkflowState
	err := r.db.WithContext(ctx).Where("sort_order > ?", afterOrder).Order("sort_order").First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("state after order %d: %w", afterOrder, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *referenceRepository) NextStates(ctx context.Context, afterOrder, limit int) ([]domain.WorkflowState, error) {
	var states []domain.WorkflowState
	err := r.db.WithContext(ctx).
		Where("sort_order > ?", afterOrder).
		Order("sort_order").
		Limit(limit).
		Find(&states).Error
	return states, err
}

func (r *referenceRepository) NextDepartments(ctx context.Context, afterOrder, limit int) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).
		Where("workflow_order > ? AND is_active = ?", afterOrder, true).
		Order("workflow_order").
		Limit(limit).
		Find(&departments).Error
	return departments, err
}

func (r *referenceRepository) ListStates(ctx context.Context) ([]domain.WorkflowState, error) {
	var states []domain.WorkflowState
	err := r.db.WithContext(ctx).Order("sort_order").Find(&states).Error
	return states, err
}

func (r *referenceRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("workflow_order").Find(&departments).Error
	return departments, err
}
