package audit

import (
	"context"
	"fmt"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// Service records and lists audit entries.
type Service interface {
	Record(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]EntryDTO, error)
}

type auditRepository interface {
	Record(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]models.AuditLog, error)
}

type service struct {
	repo auditRepository
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build an audit service.
type ServiceParams struct {
	Repo   auditRepository
	Logger *logger.Logger
}

// NewService constructs the audit service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Record appends an entry. Failures are logged but surfaced to the caller
// so write paths can decide whether to treat them as best-effort.
func (s *service) Record(ctx context.Context, entry models.AuditLog) error {
	if err := s.repo.Record(ctx, entry); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"action": string(entry.Action),
				"entity": entry.Entity,
			})
			s.logg.Error(logCtx, "audit.record.failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]EntryDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	out := make([]EntryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
