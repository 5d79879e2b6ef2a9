package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateOI creates an internal order under an active mall
func (s *CatalogService) CreateOI(ctx context.Context, req *domain.CreateOIRequest) (*domain.OIDTO, error) {
	mall, err := s.activeMall(ctx, req.MallID)
	if err != nil {
		return nil, err
	}

	oi := &domain.OI{
		MallID:          mall.ID,
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		AnnualBudgetUSD: money(req.AnnualBudgetUSD),
		IsActive:        true,
	}
	if err := s.oiRepo.Create(ctx, oi); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOICode
		}
		return nil, fmt.Errorf("failed to create OI: %w", err)
	}
	oi.Mall = mall

	s.logger.Info("OI created",
		zap.String("oi_id", oi.ID.String()),
		zap.String("code", oi.Code),
		zap.String("mall_id", mall.ID.String()),
	)

	dto := mapper.ToOIDTO(oi)
	return &dto, nil
}

// GetOI retrieves an OI by ID
func (s *CatalogService) GetOI(ctx context.Context, id uuid.UUID) (*domain.OIDTO, error) {
	oi, err := s.oiRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOINotFound
		}
		return nil, fmt.Errorf("failed to get OI: %w", err)
	}
	dto := mapper.ToOIDTO(oi)
	return &dto, nil
}

// UpdateOI updates an OI
func (s *CatalogService) UpdateOI(ctx context.Context, id uuid.UUID, req *domain.UpdateOIRequest) (*domain.OIDTO, error) {
	oi, err := s.oiRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOINotFound
		}
		return nil, fmt.Errorf("failed to get OI: %w", err)
	}

	if req.MallID != oi.MallID {
		mall, err := s.activeMall(ctx, req.MallID)
		if err != nil {
			return nil, err
		}
		oi.MallID = mall.ID
		oi.Mall = mall
	}
	oi.Code = strings.TrimSpace(req.Code)
	oi.Name = strings.TrimSpace(req.Name)
	oi.AnnualBudgetUSD = money(req.AnnualBudgetUSD)
	if req.IsActive != nil {
		oi.IsActive = *req.IsActive
	}

	if err := s.oiRepo.Update(ctx, oi); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOICode
		}
		return nil, fmt.Errorf("failed to update OI: %w", err)
	}
	dto := mapper.ToOIDTO(oi)
	return &dto, nil
}

// DeactivateOI soft deletes an OI
func (s *CatalogService) DeactivateOI(ctx context.Context, id uuid.UUID) error {
	if err := s.oiRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOINotFound
		}
		return fmt.Errorf("failed to deactivate OI: %w", err)
	}
	s.logger.Info("OI deactivated", zap.String("oi_id", id.String()))
	return nil
}

// ListOIs lists OIs filtered by mall and active flag
func (s *CatalogService) ListOIs(ctx context.Context, filters repository.OIFilters) ([]domain.OIDTO, error) {
	ois, err := s.oiRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list OIs: %w", err)
	}
	dtos := make([]domain.OIDTO, len(ois))
	for i := range ois {
		dtos[i] = mapper.ToOIDTO(&ois[i])
	}
	return dtos, nil
}

// UpsertBudget creates or replaces the monthly budget of an OI
func (s *CatalogService) UpsertBudget(ctx context.Context, req *domain.UpsertBudgetRequest) (*domain.BudgetDTO, error) {
	oi, err := s.oiRepo.GetByID(ctx, req.OIID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOINotFound
		}
		return nil, fmt.Errorf("failed to get OI: %w", err)
	}

	budget := &domain.Budget{
		OIID:      oi.ID,
		Year:      req.Year,
		Month:     req.Month,
		BudgetUSD: money(req.BudgetUSD),
	}
	if err := s.budgetRepo.Upsert(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}
	budget.OI = oi

	dto := mapper.ToBudgetDTO(budget)
	return &dto, nil
}

// ListBudgets lists the monthly budgets of a year
func (s *CatalogService) ListBudgets(ctx context.Context, year int, oiID *uuid.UUID) ([]domain.BudgetDTO, error) {
	budgets, err := s.budgetRepo.List(ctx, year, oiID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	dtos := make([]domain.BudgetDTO, len(budgets))
	for i := range budgets {
		dtos[i] = mapper.ToBudgetDTO(&budgets[i])
	}
	return dtos, nil
}

// DeleteBudget removes a monthly budget row
func (s *CatalogService) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := s.budgetRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBudgetNotFound
		}
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

func (s *CatalogService) activeMall(ctx context.Context, id uuid.UUID) (*domain.Mall, error) {
	mall, err := s.mallRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMallNotFound
		}
		return nil, fmt.Errorf("failed to get mall: %w", err)
	}
	if !mall.IsActive {
		return nil, fmt.Errorf("%w: mall %s", ErrInactiveReference, mall.Name)
	}
	return mall, nil
}
