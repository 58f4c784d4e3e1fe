package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type expedienteRepository struct {
	db *gorm.DB
}

// NewExpedienteRepository creates a gorm-backed ExpedienteRepository.
func NewExpedienteRepository(db *gorm.DB) ports.ExpedienteRepository {
	return &expedienteRepository{db: db}
}

// notDeleted scopes queries to live expedientes.
func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func (r *expedienteRepository) Create(ctx context.Context, exp *domain.Expediente) error {
	return r.db.WithContext(ctx).Create(exp).Error
}

func (r *expedienteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expediente, error) {
	var exp domain.Expediente
	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("expediente %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

func (r *expedienteRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*domain.Expediente, error) {
	var exp domain.Expediente
	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("case_number = ?", caseNumber).First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("expediente %s: %w", caseNumber, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

func (r *expedienteRepository) List(ctx context.Context, filter ports.ExpedienteFilter) ([]domain.Expediente, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Expediente{}).Scopes(notDeleted)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("current_department_id = ?", *filter.DepartmentID)
	}
	if filter.StateID != nil {
		query = query.Where("current_state_id = ?", *filter.StateID)
	}
	if filter.OwnerCedula != "" {
		query = query.Where("owner_cedula = ?", filter.OwnerCedula)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var expedientes []domain.Expediente
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&expedientes).Error
	return expedientes, total, err
}

// SoftDelete marks the expediente deleted. Expedientes are never hard-deleted.
func (r *expedienteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&domain.Expediente{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("expediente %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ApplyTransition appends the transition record and updates the expediente
// pointers as one atomic unit. The version predicate makes two concurrent
// transitions on the same case conflict instead of both capturing the same
// from-state; the loser's transition row rolls back with the transaction.
func (r *expedienteRepository) ApplyTransition(ctx context.Context, exp *domain.Expediente, tr *domain.Transition, autoTask *domain.Task, expectedVersion int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tr).Error; err != nil {
			return err
		}

		result := tx.Model(&domain.Expediente{}).
			Where("id = ? AND version = ? AND is_deleted = ?", exp.ID, expectedVersion, false).
			Updates(map[string]interface{}{
				"current_state_id":      exp.CurrentStateID,
				"current_department_id": exp.CurrentDepartmentID,
				"status":                exp.Status,
				"completed_at":          exp.CompletedAt,
				"version":               expectedVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		if autoTask != nil {
			if err := tx.Create(autoTask).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	exp.Version = expectedVersion + 1
	return nil
}

func (r *expedienteRepository) ListTransitions(ctx context.Context, expedienteID uuid.UUID, limit, offset int) ([]domain.Transition, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var transitions []domain.Transition
	err := r.db.WithContext(ctx).
		Where("expediente_id = ?", expedienteID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transitions).Error
	return transitions, err
}

func (r *expedienteRepository) CountsByStatus(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Expediente{}).Scopes(notDeleted)
	if departmentID != nil {
		query = query.Where("current_department_id = ?", *departmentID)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := query.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *expedienteRepository) CountsByDepartment(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Expediente{}).Scopes(notDeleted).
		Select("departments.name as name, COUNT(*) as count").
		Joins("JOIN departments ON departments.id = expedientes.current_department_id").
		Group("departments.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}

func (r *expedienteRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Expediente{}).Scopes(notDeleted).Count(&total).Error
	return total, err
}
