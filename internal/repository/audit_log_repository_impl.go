package repository

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	domainRepo "github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) domainRepo.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return database.Conn(ctx, r.db).Create(log).Error
}

func (r *auditLogRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
