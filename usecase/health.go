package usecase

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/washday/washday/core/config"
)

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

type HealthService struct {
	db *sql.DB
}

func NewHealthService(db *sql.DB) *HealthService {
	return &HealthService{db: db}
}

func (s *HealthService) Check(ctx context.Context) (HealthStatus, error) {
	status := HealthStatus{Status: "ok", Database: "ok"}
	if config.Global != nil {
		status.Version = config.Global.App.Version
	}

	if s.db == nil {
		status.Status = "degraded"
		status.Database = "not initialized"
		return status, fmt.Errorf("database not initialized")
	}
	if err := s.db.PingContext(ctx); err != nil {
		status.Status = "degraded"
		status.Database = err.Error()
		return status, err
	}
	return status, nil
}
