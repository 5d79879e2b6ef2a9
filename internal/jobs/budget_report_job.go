package jobs

import (
	"context"
	"time"

	"github.com/spectrum-media/quote-api/internal/domain"
	"go.uber.org/zap"
)

// BudgetReportJobName is the name of the budget execution archive job
const BudgetReportJobName = "budget_report_archive"

// BudgetArchiver stores the budget execution workbook for a year
type BudgetArchiver interface {
	ArchiveBudgetExecution(ctx context.Context, year, retention int) (*domain.ReportArchiveDTO, error)
}

// BudgetReportJob archives the budget execution workbook of the period that
// just closed. Running on the first day of a month archives the previous
// month's year, so the January run closes out the prior year.
type BudgetReportJob struct {
	archiver  BudgetArchiver
	retention int
	logger    *zap.Logger
	now       func() time.Time
}

// NewBudgetReportJob creates the archive job
func NewBudgetReportJob(archiver BudgetArchiver, retention int, logger *zap.Logger) *BudgetReportJob {
	return &BudgetReportJob{
		archiver:  archiver,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run archives the workbook
func (j *BudgetReportJob) Run(ctx context.Context) error {
	year := j.now().AddDate(0, 0, -1).Year()

	archive, err := j.archiver.ArchiveBudgetExecution(ctx, year, j.retention)
	if err != nil {
		return err
	}

	j.logger.Info("budget execution report archived",
		zap.Int("year", year),
		zap.String("archive_id", archive.ID.String()),
		zap.String("name", archive.Name),
	)
	return nil
}

// RegisterBudgetReportJob registers the archive job with the scheduler
func RegisterBudgetReportJob(scheduler *Scheduler, archiver BudgetArchiver, retention int, logger *zap.Logger, cronExpr string, timeout time.Duration) (*BudgetReportJob, error) {
	job := NewBudgetReportJob(archiver, retention, logger)
	if err := scheduler.AddJob(BudgetReportJobName, cronExpr, timeout, job.Run); err != nil {
		return nil, err
	}
	return job, nil
}
