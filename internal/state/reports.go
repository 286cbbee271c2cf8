package state

import (
	"context"
	"fmt"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/haptic"
	"github.com/phrazzld/medinodus/internal/store"
)

// SaveReport validates draft, stamps it with a new id and the current date,
// and prepends it to the report log. The whole log is persisted on every
// append, so the cost grows linearly with the number of reports.
func (c *Container) SaveReport(ctx context.Context, draft domain.ReportDraft) (domain.Report, error) {
	report, err := domain.NewReport(draft, c.now())
	if err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}

	c.reportsMu.Lock()
	c.mu.Lock()
	// the slice is replaced, never modified in place, so it can be
	// marshalled after the lock is released
	reports := make([]domain.Report, 0, len(c.snap.Reports)+1)
	reports = append(reports, report.Clone())
	reports = append(reports, c.snap.Reports...)
	c.snap.Reports = reports
	c.mu.Unlock()

	c.writeJSON(context.WithoutCancel(ctx), store.KeyReports, reports)
	c.reportsMu.Unlock()

	c.logger.Debug("report saved", "report_id", report.ID, "report_count", len(reports))
	c.notifier.Pulse(haptic.Light)
	return report, nil
}
