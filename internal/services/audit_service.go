package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/views"
)

// AuditService records audit findings.
type AuditService struct {
	records *RecordService
}

func NewAuditService(rs *RecordService) *AuditService {
	return &AuditService{records: rs}
}

// Add appends an audit finding. Status defaults to Pending.
func (s *AuditService) Add(ctx context.Context, a records.Audit) (core.Table, error) {
	if !slices.Contains(records.AuditLevels, a.Level) {
		return core.Table{}, fmt.Errorf("%w: unknown audit level %q", ErrValidation, a.Level)
	}
	if strings.TrimSpace(a.Point) == "" {
		return core.Table{}, fmt.Errorf("%w: point is required", ErrValidation)
	}
	if a.Status == "" {
		a.Status = records.StatusPending
	}
	rec, err := records.EncodeOne(records.KindAudit, a)
	if err != nil {
		return core.Table{}, err
	}
	return s.records.Append(ctx, records.KindAudit, rec, "")
}

// ByLevel returns the findings of one audit level.
func (s *AuditService) ByLevel(ctx context.Context, level string) (core.Table, error) {
	t, err := s.records.Load(ctx, records.KindAudit)
	if err != nil {
		return t, err
	}
	return views.FilterEq(t, records.ColAuditLevel, level)
}
