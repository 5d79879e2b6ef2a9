package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/logger"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExpenseService records actual spend against approved and executed quotes
type ExpenseService struct {
	expenseRepo  *repository.ExpenseRepository
	quoteRepo    *repository.QuoteRepository
	oiRepo       *repository.OIRepository
	providerRepo *repository.ProviderRepository
	rates        *ExchangeRateService
	metrics      *metrics.DomainMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewExpenseService creates a new expense service instance
func NewExpenseService(
	expenseRepo *repository.ExpenseRepository,
	quoteRepo *repository.QuoteRepository,
	oiRepo *repository.OIRepository,
	providerRepo *repository.ProviderRepository,
	rates *ExchangeRateService,
	domainMetrics *metrics.DomainMetrics,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		quoteRepo:    quoteRepo,
		oiRepo:       oiRepo,
		providerRepo: providerRepo,
		rates:        rates,
		metrics:      domainMetrics,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateODC records an expense paid through a purchase order (ODC)
func (s *ExpenseService) CreateODC(ctx context.Context, req *domain.CreateODCExpenseRequest) (*domain.ExpenseDTO, error) {
	userCtx, err := requireRole(ctx, domain.ManagerRoles...)
	if err != nil {
		return nil, err
	}

	quote, err := s.openQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	oi, err := s.activeOI(ctx, req.OIID)
	if err != nil {
		return nil, err
	}
	if req.ProviderID != nil {
		if _, err := s.provider(ctx, *req.ProviderID); err != nil {
			return nil, err
		}
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}

	expense := &domain.Expense{
		Date:        date,
		MallID:      quote.MallID,
		OIID:        oi.ID,
		QuoteID:     quote.ID,
		Category:    domain.ExpenseCategoryODC,
		Description: strings.TrimSpace(req.Description),
		ODCNumber:   strings.TrimSpace(req.ODCNumber),
		ProviderID:  req.ProviderID,
	}
	return s.record(ctx, expense, money(req.AmountGTQ), userCtx)
}

// CreatePettyCash records an invoice paid from petty cash
func (s *ExpenseService) CreatePettyCash(ctx context.Context, req *domain.CreatePettyCashExpenseRequest) (*domain.ExpenseDTO, error) {
	userCtx, err := requireRole(ctx, domain.ManagerRoles...)
	if err != nil {
		return nil, err
	}

	quote, err := s.openQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	oi, err := s.activeOI(ctx, req.OIID)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}

	doc := strings.TrimSpace(req.DocNumber)
	expense := &domain.Expense{
		Date:           date,
		MallID:         quote.MallID,
		OIID:           oi.ID,
		QuoteID:        quote.ID,
		Category:       domain.ExpenseCategoryPettyCash,
		Description:    "Factura " + doc,
		DocNumber:      doc,
		TextAdditional: strings.TrimSpace(req.TextAdditional),
		ProviderID:     &provider.ID,
	}
	return s.record(ctx, expense, money(req.AmountGTQ), userCtx)
}

// CreateHost records a host/talent receipt. The amount is the sum of
// rate x days over the rows and the OI is the quote's assigned OI.
func (s *ExpenseService) CreateHost(ctx context.Context, req *domain.CreateHostExpenseRequest) (*domain.ExpenseDTO, error) {
	userCtx, err := requireRole(ctx, domain.ManagerRoles...)
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 || len(req.Rows) > 10 {
		return nil, fmt.Errorf("%w: a host receipt needs between 1 and 10 rows", ErrInvalidInput)
	}

	quote, err := s.openQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	if quote.OIID == nil {
		return nil, ErrQuoteHasNoOI
	}
	provider, err := s.provider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		if date, err = parseDate(req.Date, "date"); err != nil {
			return nil, err
		}
	}

	rows := make(domain.HostRows, len(req.Rows))
	for i, r := range req.Rows {
		if r.Rate < 0 || r.Days < 0 {
			return nil, fmt.Errorf("%w: rows[%d] rate and days must not be negative", ErrInvalidInput, i)
		}
		rows[i] = domain.HostRow{Description: strings.TrimSpace(r.Description), Rate: r.Rate, Days: r.Days}
	}

	expense := &domain.Expense{
		Date:        date,
		MallID:      quote.MallID,
		OIID:        *quote.OIID,
		QuoteID:     quote.ID,
		Category:    domain.ExpenseCategoryHost,
		Description: "Recibo Host " + provider.Name,
		HostDetails: rows,
		ProviderID:  &provider.ID,
	}
	return s.record(ctx, expense, domain.HostTotal(rows), userCtx)
}

// record converts the GTQ amount at the active rate and stores the expense
func (s *ExpenseService) record(ctx context.Context, expense *domain.Expense, amountGTQ decimal.Decimal, user *auth.UserContext) (*domain.ExpenseDTO, error) {
	if amountGTQ.IsNegative() {
		return nil, fmt.Errorf("%w: amountGtq must not be negative", ErrInvalidInput)
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	amountUSD, err := domain.ToUSD(amountGTQ, rate)
	if err != nil {
		return nil, err
	}

	expense.AmountGTQ = amountGTQ
	expense.AmountUSD = amountUSD
	expense.RateGTQPerUSD = rate
	expense.Year = expense.Date.Year()
	expense.Month = int(expense.Date.Month())
	expense.CreatedByID = user.UserID
	expense.CreatedByName = user.DisplayName

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}

	s.metrics.ExpenseRecorded(string(expense.Category), amountUSD.InexactFloat64())
	logger.WithExpense(s.logger, expense.ID.String(), string(expense.Category)).Info("expense recorded",
		zap.String("quote_id", expense.QuoteID.String()),
		zap.String("oi_id", expense.OIID.String()),
		zap.String("amount_gtq", amountGTQ.String()),
		zap.String("amount_usd", amountUSD.String()),
	)

	return s.GetByID(ctx, expense.ID)
}

// GetByID retrieves an expense
func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseDTO, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	dto := mapper.ToExpenseDTO(expense)
	return &dto, nil
}

// List returns a paginated list of expenses
func (s *ExpenseService) List(ctx context.Context, page, pageSize int, filters *repository.ExpenseFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)

	expenses, total, err := s.expenseRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	dtos := make([]domain.ExpenseDTO, len(expenses))
	for i := range expenses {
		dtos[i] = mapper.ToExpenseDTO(&expenses[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Delete removes an expense (admin only)
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	s.logger.Info("expense deleted", zap.String("expense_id", id.String()), zap.String("user_id", userCtx.UserID))
	return nil
}

// openQuote returns the quote when it accepts expenses
func (s *ExpenseService) openQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetHeader(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if !quote.Status.AcceptsExpenses() {
		return nil, ErrQuoteNotAcceptingExpenses
	}
	return quote, nil
}

func (s *ExpenseService) activeOI(ctx context.Context, id uuid.UUID) (*domain.OI, error) {
	oi, err := s.oiRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOINotFound
		}
		return nil, fmt.Errorf("failed to get OI: %w", err)
	}
	if !oi.IsActive {
		return nil, fmt.Errorf("%w: OI %s", ErrInactiveReference, oi.Code)
	}
	return oi, nil
}

func (s *ExpenseService) provider(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	if !provider.IsActive {
		return nil, fmt.Errorf("%w: provider %s", ErrInactiveReference, provider.Name)
	}
	return provider, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted as YYYY-MM-DD", ErrInvalidInput, field)
	}
	return t, nil
}
