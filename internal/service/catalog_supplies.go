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

// CreateInsumo creates a billable supply. Unit type defaults to unit and
// billing mode to multipliable.
func (s *CatalogService) CreateInsumo(ctx context.Context, req *domain.CreateInsumoRequest) (*domain.InsumoDTO, error) {
	unitType := req.UnitType
	if unitType == "" {
		unitType = domain.UnitTypeUnit
	}
	mode := req.BillingMode
	if mode == "" {
		mode = domain.BillingModeMultipliable
	}

	insumo := &domain.Insumo{
		Name:        strings.TrimSpace(req.Name),
		UnitType:    unitType,
		CostGTQ:     money(req.CostGTQ),
		BillingMode: mode,
		IsActive:    true,
	}
	if err := s.insumoRepo.Create(ctx, insumo); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInsumo
		}
		return nil, fmt.Errorf("failed to create insumo: %w", err)
	}
	s.logger.Info("insumo created", zap.String("insumo_id", insumo.ID.String()), zap.String("name", insumo.Name))
	dto := mapper.ToInsumoDTO(insumo)
	return &dto, nil
}

// GetInsumo retrieves an insumo by ID
func (s *CatalogService) GetInsumo(ctx context.Context, id uuid.UUID) (*domain.InsumoDTO, error) {
	insumo, err := s.insumoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsumoNotFound
		}
		return nil, fmt.Errorf("failed to get insumo: %w", err)
	}
	dto := mapper.ToInsumoDTO(insumo)
	return &dto, nil
}

// UpdateInsumo updates an insumo. Quote lines keep their stored costs until
// the quote is recalculated.
func (s *CatalogService) UpdateInsumo(ctx context.Context, id uuid.UUID, req *domain.UpdateInsumoRequest) (*domain.InsumoDTO, error) {
	insumo, err := s.insumoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsumoNotFound
		}
		return nil, fmt.Errorf("failed to get insumo: %w", err)
	}
	insumo.Name = strings.TrimSpace(req.Name)
	insumo.UnitType = req.UnitType
	insumo.CostGTQ = money(req.CostGTQ)
	insumo.BillingMode = req.BillingMode
	if req.IsActive != nil {
		insumo.IsActive = *req.IsActive
	}
	if err := s.insumoRepo.Update(ctx, insumo); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInsumo
		}
		return nil, fmt.Errorf("failed to update insumo: %w", err)
	}
	dto := mapper.ToInsumoDTO(insumo)
	return &dto, nil
}

// DeactivateInsumo soft deletes an insumo
func (s *CatalogService) DeactivateInsumo(ctx context.Context, id uuid.UUID) error {
	if err := s.insumoRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsumoNotFound
		}
		return fmt.Errorf("failed to deactivate insumo: %w", err)
	}
	return nil
}

// ListInsumos lists insumos
func (s *CatalogService) ListInsumos(ctx context.Context, includeInactive bool, search string) ([]domain.InsumoDTO, error) {
	insumos, err := s.insumoRepo.List(ctx, includeInactive, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list insumos: %w", err)
	}
	dtos := make([]domain.InsumoDTO, len(insumos))
	for i := range insumos {
		dtos[i] = mapper.ToInsumoDTO(&insumos[i])
	}
	return dtos, nil
}

// CreateProvider creates a supplier
func (s *CatalogService) CreateProvider(ctx context.Context, req *domain.ProviderRequest) (*domain.ProviderDTO, error) {
	provider := &domain.Provider{IsActive: true}
	applyProviderRequest(provider, req)
	provider.IsActive = true

	if err := s.providerRepo.Create(ctx, provider); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateProvider
		}
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	s.logger.Info("provider created", zap.String("provider_id", provider.ID.String()), zap.String("name", provider.Name))
	dto := mapper.ToProviderDTO(provider)
	return &dto, nil
}

// GetProvider retrieves a provider by ID
func (s *CatalogService) GetProvider(ctx context.Context, id uuid.UUID) (*domain.ProviderDTO, error) {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	dto := mapper.ToProviderDTO(provider)
	return &dto, nil
}

// UpdateProvider updates a provider
func (s *CatalogService) UpdateProvider(ctx context.Context, id uuid.UUID, req *domain.ProviderRequest) (*domain.ProviderDTO, error) {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	applyProviderRequest(provider, req)
	if err := s.providerRepo.Update(ctx, provider); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateProvider
		}
		return nil, fmt.Errorf("failed to update provider: %w", err)
	}
	dto := mapper.ToProviderDTO(provider)
	return &dto, nil
}

// DeactivateProvider soft deletes a provider
func (s *CatalogService) DeactivateProvider(ctx context.Context, id uuid.UUID) error {
	if err := s.providerRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProviderNotFound
		}
		return fmt.Errorf("failed to deactivate provider: %w", err)
	}
	return nil
}

// ListProviders lists providers
func (s *CatalogService) ListProviders(ctx context.Context, filters repository.ProviderFilters) ([]domain.ProviderDTO, error) {
	providers, err := s.providerRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	dtos := make([]domain.ProviderDTO, len(providers))
	for i := range providers {
		dtos[i] = mapper.ToProviderDTO(&providers[i])
	}
	return dtos, nil
}

func applyProviderRequest(p *domain.Provider, req *domain.ProviderRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.LegalName = strings.TrimSpace(req.LegalName)
	p.ProviderType = req.ProviderType
	p.NIT = strings.TrimSpace(req.NIT)
	p.CUI = strings.TrimSpace(req.CUI)
	p.BankName = req.BankName
	p.AccountNumber = req.AccountNumber
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}
