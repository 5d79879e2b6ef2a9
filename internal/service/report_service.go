package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report kinds stored in report_archives.kind
const (
	ReportKindBudgetExecution = "budget_execution"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Fixed values of the petty cash accounting layout
const (
	pettyCashOperation = "COSTO O GASTO GRAVADO"
	pettyCashTaxCode   = "V1"
	pettyCashLedger    = "7006080000"
	pettyCashText      = "B"
)

var (
	odcReportHeader = []string{"Fecha", "ODC", "OI", "Proveedor", "Monto Q", "Descripcion", "Actividad"}

	pettyCashReportHeader = []string{
		"Operación Contable", "Monto", "ST.doc", "Ind.Impuesto", "Libro Mayor", "NIT",
		"RAZÓN SOCIAL", "Fecha Documento", "# FACT", "Orden Interna", "Texto",
		"Texto Adicional 2", "Actividad",
	}
)

// DateRange bounds a report by expense date, both ends inclusive
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ReportService renders CSV and XLSX reports and manages archived workbooks
type ReportService struct {
	expenseRepo *repository.ExpenseRepository
	archiveRepo *repository.ReportArchiveRepository
	dashboard   *DashboardService
	store       storage.Storage
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new report service. store may be nil, in which
// case archive operations return ErrStorageUnavailable.
func NewReportService(
	expenseRepo *repository.ExpenseRepository,
	archiveRepo *repository.ReportArchiveRepository,
	dashboard *DashboardService,
	store storage.Storage,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		expenseRepo: expenseRepo,
		archiveRepo: archiveRepo,
		dashboard:   dashboard,
		store:       store,
		logger:      logger,
		now:         time.Now,
	}
}

// ODCReport renders the purchase order expenses of the range as CSV
func (s *ReportService) ODCReport(ctx context.Context, r DateRange) ([]byte, error) {
	expenses, err := s.expensesOf(ctx, domain.ExpenseCategoryODC, r)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(expenses)+1)
	records = append(records, odcReportHeader)
	for i := range expenses {
		e := &expenses[i]
		records = append(records, []string{
			e.Date.Format(domain.DateLayout),
			e.ODCNumber,
			oiCode(e),
			providerName(e),
			e.AmountGTQ.StringFixed(domain.MoneyPlaces),
			e.Description,
			activityName(e),
		})
	}
	return writeCSV(records)
}

// PettyCashReport renders petty cash expenses in the accounting import layout
func (s *ReportService) PettyCashReport(ctx context.Context, r DateRange) ([]byte, error) {
	expenses, err := s.expensesOf(ctx, domain.ExpenseCategoryPettyCash, r)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(expenses)+1)
	records = append(records, pettyCashReportHeader)
	for i := range expenses {
		e := &expenses[i]
		var nit, legalName string
		if e.Provider != nil {
			nit = e.Provider.NIT
			legalName = e.Provider.LegalName
		}
		records = append(records, []string{
			pettyCashOperation,
			e.AmountGTQ.StringFixed(domain.MoneyPlaces),
			"",
			pettyCashTaxCode,
			pettyCashLedger,
			nit,
			legalName,
			e.Date.Format(domain.DateLayout),
			e.DocNumber,
			oiCode(e),
			pettyCashText,
			e.TextAdditional,
			activityName(e),
		})
	}
	return writeCSV(records)
}

func (s *ReportService) expensesOf(ctx context.Context, category domain.ExpenseCategory, r DateRange) ([]domain.Expense, error) {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	expenses, err := s.expenseRepo.ListAll(ctx, &repository.ExpenseFilters{
		Category: &category,
		DateFrom: r.From,
		DateTo:   r.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return expenses, nil
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func oiCode(e *domain.Expense) string {
	if e.OI != nil {
		return e.OI.Code
	}
	return ""
}

func providerName(e *domain.Expense) string {
	if e.Provider != nil {
		return e.Provider.Name
	}
	return ""
}

func activityName(e *domain.Expense) string {
	if e.Quote != nil {
		return e.Quote.ActivityName
	}
	return ""
}

// ArchiveBudgetExecution stores the year's budget execution workbook and
// prunes archives beyond the newest retention copies. Retention <= 0 keeps all.
func (s *ReportService) ArchiveBudgetExecution(ctx context.Context, year, retention int) (*domain.ReportArchiveDTO, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	content, err := s.BudgetExecutionWorkbook(ctx, DashboardFilters{Year: year})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	archive := &domain.ReportArchive{
		Name:        fmt.Sprintf("ejecucion-presupuesto-%d-%s.xlsx", year, now.Format("20060102-150405")),
		Kind:        ReportKindBudgetExecution,
		Year:        year,
		ContentType: xlsxContentType,
	}
	archive.StoragePath = storage.ArchiveKey(archive.Kind, year, uuid.NewString()+".xlsx")

	size, err := s.store.Put(ctx, archive.StoragePath, archive.ContentType, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to store workbook: %w", err)
	}
	archive.SizeBytes = size

	if err := s.archiveRepo.Create(ctx, archive); err != nil {
		if delErr := s.store.Delete(ctx, archive.StoragePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned archive object", zap.String("key", archive.StoragePath), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record archive: %w", err)
	}

	s.logger.Info("budget execution workbook archived",
		zap.String("archive_id", archive.ID.String()),
		zap.Int("year", year),
		zap.Int64("size_bytes", size),
	)

	if retention > 0 {
		if err := s.PruneArchives(ctx, archive.Kind, retention); err != nil {
			s.logger.Warn("archive retention incomplete", zap.Error(err))
		}
	}

	dto := mapper.ToReportArchiveDTO(archive)
	return &dto, nil
}

// PruneArchives deletes the archives of a kind beyond the newest keep copies.
// Every candidate is attempted; failures are combined into the returned error.
func (s *ReportService) PruneArchives(ctx context.Context, kind string, keep int) error {
	if s.store == nil {
		return ErrStorageUnavailable
	}
	stale, err := s.archiveRepo.ListBeyondRetention(ctx, kind, keep)
	if err != nil {
		return fmt.Errorf("failed to list stale archives: %w", err)
	}

	var errs error
	removed := 0
	for _, a := range stale {
		if err := s.store.Delete(ctx, a.StoragePath); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete object %s: %w", a.StoragePath, err))
			continue
		}
		if err := s.archiveRepo.Delete(ctx, a.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete archive %s: %w", a.ID, err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("pruned report archives", zap.String("kind", kind), zap.Int("removed", removed), zap.Int("kept", keep))
	}
	return errs
}

// ListArchives returns archived reports, newest first
func (s *ReportService) ListArchives(ctx context.Context, kind string, limit int) ([]domain.ReportArchiveDTO, error) {
	archives, err := s.archiveRepo.List(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	dtos := make([]domain.ReportArchiveDTO, len(archives))
	for i := range archives {
		dtos[i] = mapper.ToReportArchiveDTO(&archives[i])
	}
	return dtos, nil
}

// OpenArchive returns the archive metadata and a reader over its content.
// The caller closes the reader.
func (s *ReportService) OpenArchive(ctx context.Context, id uuid.UUID) (*domain.ReportArchiveDTO, io.ReadCloser, error) {
	if s.store == nil {
		return nil, nil, ErrStorageUnavailable
	}
	archive, err := s.archiveRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrReportArchiveNotFound
		}
		return nil, nil, fmt.Errorf("failed to get archive: %w", err)
	}

	rc, err := s.store.Get(ctx, archive.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrReportArchiveNotFound
		}
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}

	dto := mapper.ToReportArchiveDTO(archive)
	return &dto, rc, nil
}
