package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/pkg/response"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type pingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingDB    pingFunc
	pingRedis pingFunc
	env       string
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, env string) *HealthHandler {
	return &HealthHandler{
		pingDB: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		pingRedis: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		env: env,
	}
}

// Health reports ok, degraded when only Redis is down (the slot cache and
// token store), or error when PostgreSQL is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	dbCtx, dbCancel := context.WithTimeout(r.Context(), time.Second)
	err := h.pingDB(dbCtx)
	dbCancel()
	if err != nil {
		deps["postgres"] = "down"
		status = "error"
	} else {
		deps["postgres"] = "ok"
	}

	redisCtx, redisCancel := context.WithTimeout(r.Context(), time.Second)
	err = h.pingRedis(redisCtx)
	redisCancel()
	if err != nil {
		deps["redis"] = "down"
		if status == "ok" {
			status = "degraded"
		}
	} else {
		deps["redis"] = "ok"
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}
	response.JSON(w, httpStatus, HealthResponse{
		Status:       status,
		Env:          h.env,
		Dependencies: deps,
	})
}
