package repository

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.AuditLog, error)
}
