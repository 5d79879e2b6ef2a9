package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService maintains the lookup tables quotes and expenses reference:
// malls, OIs with their budgets, activity types, insumos, providers and expense types
type CatalogService struct {
	mallRepo         *repository.MallRepository
	oiRepo           *repository.OIRepository
	budgetRepo       *repository.BudgetRepository
	activityTypeRepo *repository.ActivityTypeRepository
	insumoRepo       *repository.InsumoRepository
	providerRepo     *repository.ProviderRepository
	expenseTypeRepo  *repository.ExpenseTypeRepository
	logger           *zap.Logger
}

// NewCatalogService creates a new catalog service instance
func NewCatalogService(
	mallRepo *repository.MallRepository,
	oiRepo *repository.OIRepository,
	budgetRepo *repository.BudgetRepository,
	activityTypeRepo *repository.ActivityTypeRepository,
	insumoRepo *repository.InsumoRepository,
	providerRepo *repository.ProviderRepository,
	expenseTypeRepo *repository.ExpenseTypeRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		mallRepo:         mallRepo,
		oiRepo:           oiRepo,
		budgetRepo:       budgetRepo,
		activityTypeRepo: activityTypeRepo,
		insumoRepo:       insumoRepo,
		providerRepo:     providerRepo,
		expenseTypeRepo:  expenseTypeRepo,
		logger:           logger,
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(domain.MoneyPlaces)
}

// ============================================================================
// Malls
// ============================================================================

// CreateMall creates a new mall
func (s *CatalogService) CreateMall(ctx context.Context, req *domain.CreateMallRequest) (*domain.MallDTO, error) {
	mall := &domain.Mall{Name: strings.TrimSpace(req.Name), IsActive: true}
	if err := s.mallRepo.Create(ctx, mall); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateMall
		}
		return nil, fmt.Errorf("failed to create mall: %w", err)
	}
	s.logger.Info("mall created", zap.String("mall_id", mall.ID.String()), zap.String("name", mall.Name))
	dto := mapper.ToMallDTO(mall)
	return &dto, nil
}

// GetMall retrieves a mall by ID
func (s *CatalogService) GetMall(ctx context.Context, id uuid.UUID) (*domain.MallDTO, error) {
	mall, err := s.mallRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMallNotFound
		}
		return nil, fmt.Errorf("failed to get mall: %w", err)
	}
	dto := mapper.ToMallDTO(mall)
	return &dto, nil
}

// UpdateMall renames or (de)activates a mall
func (s *CatalogService) UpdateMall(ctx context.Context, id uuid.UUID, req *domain.UpdateMallRequest) (*domain.MallDTO, error) {
	mall, err := s.mallRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMallNotFound
		}
		return nil, fmt.Errorf("failed to get mall: %w", err)
	}
	mall.Name = strings.TrimSpace(req.Name)
	if req.IsActive != nil {
		mall.IsActive = *req.IsActive
	}
	if err := s.mallRepo.Update(ctx, mall); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateMall
		}
		return nil, fmt.Errorf("failed to update mall: %w", err)
	}
	dto := mapper.ToMallDTO(mall)
	return &dto, nil
}

// DeactivateMall soft deletes a mall
func (s *CatalogService) DeactivateMall(ctx context.Context, id uuid.UUID) error {
	if err := s.mallRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMallNotFound
		}
		return fmt.Errorf("failed to deactivate mall: %w", err)
	}
	s.logger.Info("mall deactivated", zap.String("mall_id", id.String()))
	return nil
}

// ListMalls lists malls, active only unless includeInactive
func (s *CatalogService) ListMalls(ctx context.Context, includeInactive bool, search string) ([]domain.MallDTO, error) {
	malls, err := s.mallRepo.List(ctx, includeInactive, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list malls: %w", err)
	}
	dtos := make([]domain.MallDTO, len(malls))
	for i := range malls {
		dtos[i] = mapper.ToMallDTO(&malls[i])
	}
	return dtos, nil
}

// ============================================================================
// Activity types
// ============================================================================

// CreateActivityType creates a new activity type
func (s *CatalogService) CreateActivityType(ctx context.Context, req *domain.CreateActivityTypeRequest) (*domain.ActivityTypeDTO, error) {
	at := &domain.ActivityType{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.activityTypeRepo.Create(ctx, at); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateActivityType
		}
		return nil, fmt.Errorf("failed to create activity type: %w", err)
	}
	dto := mapper.ToActivityTypeDTO(at)
	return &dto, nil
}

// GetActivityType retrieves an activity type by ID
func (s *CatalogService) GetActivityType(ctx context.Context, id uuid.UUID) (*domain.ActivityTypeDTO, error) {
	at, err := s.activityTypeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityTypeNotFound
		}
		return nil, fmt.Errorf("failed to get activity type: %w", err)
	}
	dto := mapper.ToActivityTypeDTO(at)
	return &dto, nil
}

// UpdateActivityType updates an activity type
func (s *CatalogService) UpdateActivityType(ctx context.Context, id uuid.UUID, req *domain.UpdateActivityTypeRequest) (*domain.ActivityTypeDTO, error) {
	at, err := s.activityTypeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityTypeNotFound
		}
		return nil, fmt.Errorf("failed to get activity type: %w", err)
	}
	at.Name = strings.TrimSpace(req.Name)
	at.Description = req.Description
	if req.IsActive != nil {
		at.IsActive = *req.IsActive
	}
	if err := s.activityTypeRepo.Update(ctx, at); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateActivityType
		}
		return nil, fmt.Errorf("failed to update activity type: %w", err)
	}
	dto := mapper.ToActivityTypeDTO(at)
	return &dto, nil
}

// DeactivateActivityType soft deletes an activity type
func (s *CatalogService) DeactivateActivityType(ctx context.Context, id uuid.UUID) error {
	if err := s.activityTypeRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityTypeNotFound
		}
		return fmt.Errorf("failed to deactivate activity type: %w", err)
	}
	return nil
}

// ListActivityTypes lists activity types
func (s *CatalogService) ListActivityTypes(ctx context.Context, includeInactive bool, search string) ([]domain.ActivityTypeDTO, error) {
	types, err := s.activityTypeRepo.List(ctx, includeInactive, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity types: %w", err)
	}
	dtos := make([]domain.ActivityTypeDTO, len(types))
	for i := range types {
		dtos[i] = mapper.ToActivityTypeDTO(&types[i])
	}
	return dtos, nil
}

// ListExpenseTypes lists the expense type labels
func (s *CatalogService) ListExpenseTypes(ctx context.Context, includeInactive bool) ([]domain.ExpenseTypeDTO, error) {
	types, err := s.expenseTypeRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense types: %w", err)
	}
	dtos := make([]domain.ExpenseTypeDTO, len(types))
	for i := range types {
		dtos[i] = mapper.ToExpenseTypeDTO(&types[i])
	}
	return dtos, nil
}
