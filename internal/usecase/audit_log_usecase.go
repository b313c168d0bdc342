package usecase

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/converter"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/middleware"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

const auditLogPageSize = 100

type AuditLogUsecase interface {
	GetMyAuditLogs(ctx context.Context) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(log *logrus.Logger, auditLogRepo repository.AuditLogRepository) AuditLogUsecase {
	return &auditLogUsecase{
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetMyAuditLogs returns the caller's most recent audit entries.
func (u *auditLogUsecase) GetMyAuditLogs(ctx context.Context) (*dto.AuditLogListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	logs, err := u.auditLogRepo.FindByUser(ctx, userID, auditLogPageSize)
	if err != nil {
		u.log.Warnf("Failed to find audit logs for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
