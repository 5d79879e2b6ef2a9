package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ============================================================================
// Response DTOs
// ============================================================================

type MallDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt string    `json:"createdAt"`
}

type OIDTO struct {
	ID              uuid.UUID       `json:"id"`
	MallID          uuid.UUID       `json:"mallId"`
	MallName        string          `json:"mallName,omitempty"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AnnualBudgetUSD decimal.Decimal `json:"annualBudgetUsd"`
	IsActive        bool            `json:"isActive"`
}

type BudgetDTO struct {
	ID        uuid.UUID       `json:"id"`
	OIID      uuid.UUID       `json:"oiId"`
	OICode    string          `json:"oiCode,omitempty"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	BudgetUSD decimal.Decimal `json:"budgetUsd"`
}

type ExchangeRateDTO struct {
	ID            *uuid.UUID      `json:"id,omitempty"`
	GTQPerUSD     decimal.Decimal `json:"gtqPerUsd"`
	EffectiveDate string          `json:"effectiveDate,omitempty"`
	IsActive      bool            `json:"isActive"`
	IsDefault     bool            `json:"isDefault"`
	SetByName     string          `json:"setByName,omitempty"`
}

type ActivityTypeDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
}

type InsumoDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	UnitType    UnitType        `json:"unitType"`
	CostGTQ     decimal.Decimal `json:"costGtq"`
	BillingMode BillingMode     `json:"billingMode"`
	IsActive    bool            `json:"isActive"`
}

type ProviderDTO struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	LegalName     string       `json:"legalName,omitempty"`
	ProviderType  ProviderType `json:"providerType,omitempty"`
	NIT           string       `json:"nit,omitempty"`
	CUI           string       `json:"cui,omitempty"`
	BankName      string       `json:"bankName,omitempty"`
	AccountNumber string       `json:"accountNumber,omitempty"`
	IsActive      bool         `json:"isActive"`
}

type ExpenseTypeDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"isActive"`
}

type QuoteLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	InsumoID    uuid.UUID       `json:"insumoId"`
	InsumoName  string          `json:"insumoName,omitempty"`
	BillingMode BillingMode     `json:"billingMode,omitempty"`
	UnitType    UnitType        `json:"unitType,omitempty"`
	QtyPeople   int             `json:"qtyPeople"`
	UnitsValue  int             `json:"unitsValue"`
	LineCostGTQ decimal.Decimal `json:"lineCostGtq"`
	LineCostUSD decimal.Decimal `json:"lineCostUsd"`
}

type QuoteDTO struct {
	ID                uuid.UUID        `json:"id"`
	ActivityName      string           `json:"activityName"`
	ActivityTypeID    uuid.UUID        `json:"activityTypeId"`
	ActivityTypeName  string           `json:"activityTypeName,omitempty"`
	MallID            *uuid.UUID       `json:"mallId,omitempty"`
	MallName          string           `json:"mallName,omitempty"`
	OIID              *uuid.UUID       `json:"oiId,omitempty"`
	OICode            string           `json:"oiCode,omitempty"`
	Status            QuoteStatus      `json:"status"`
	TotalCostGTQ      decimal.Decimal  `json:"totalCostGtq"`
	TotalCostUSD      decimal.Decimal  `json:"totalCostUsd"`
	SuggestedPriceM50 decimal.Decimal  `json:"suggestedPriceUsdM50"`
	SuggestedPriceM60 decimal.Decimal  `json:"suggestedPriceUsdM60"`
	SuggestedPriceM70 decimal.Decimal  `json:"suggestedPriceUsdM70"`
	FinalSalePriceUSD *decimal.Decimal `json:"finalSalePriceUsd,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	SourceQuoteID     *uuid.UUID       `json:"sourceQuoteId,omitempty"`
	CreatedByID       string           `json:"createdById"`
	CreatedByName     string           `json:"createdByName,omitempty"`
	DecidedByName     string           `json:"decidedByName,omitempty"`
	RejectionReason   string           `json:"rejectionReason,omitempty"`
	SentAt            *string          `json:"sentAt,omitempty"`
	DecidedAt         *string          `json:"decidedAt,omitempty"`
	ExecutedAt        *string          `json:"executedAt,omitempty"`
	LiquidatedAt      *string          `json:"liquidatedAt,omitempty"`
	CreatedAt         string           `json:"createdAt"`
	UpdatedAt         string           `json:"updatedAt"`
	Lines             []QuoteLineDTO   `json:"lines,omitempty"`
}

type ExpenseDTO struct {
	ID             uuid.UUID       `json:"id"`
	Date           string          `json:"date"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Category       ExpenseCategory `json:"category"`
	Description    string          `json:"description,omitempty"`
	AmountGTQ      decimal.Decimal `json:"amountGtq"`
	AmountUSD      decimal.Decimal `json:"amountUsd"`
	RateGTQPerUSD  decimal.Decimal `json:"rateGtqPerUsd"`
	QuoteID        uuid.UUID       `json:"quoteId"`
	ActivityName   string          `json:"activityName,omitempty"`
	OIID           uuid.UUID       `json:"oiId"`
	OICode         string          `json:"oiCode,omitempty"`
	MallID         *uuid.UUID      `json:"mallId,omitempty"`
	MallName       string          `json:"mallName,omitempty"`
	ProviderID     *uuid.UUID      `json:"providerId,omitempty"`
	ProviderName   string          `json:"providerName,omitempty"`
	DocNumber      string          `json:"docNumber,omitempty"`
	ODCNumber      string          `json:"odcNumber,omitempty"`
	TextAdditional string          `json:"textAdditional,omitempty"`
	HostDetails    HostRows        `json:"hostDetails,omitempty"`
	CreatedByName  string          `json:"createdByName,omitempty"`
	CreatedAt      string          `json:"createdAt"`
}

// OIExecutionDTO is one dashboard row: budget against actual spend for an OI
type OIExecutionDTO struct {
	OIID         uuid.UUID       `json:"oiId"`
	OICode       string          `json:"oiCode"`
	OIName       string          `json:"oiName"`
	BudgetUSD    decimal.Decimal `json:"budgetUsd"`
	ActualUSD    decimal.Decimal `json:"actualUsd"`
	ActualGTQ    decimal.Decimal `json:"actualGtq"`
	ExecutionPct decimal.Decimal `json:"executionPct"`
	AvailableUSD decimal.Decimal `json:"availableUsd"`
}

type DashboardTotalsDTO struct {
	BudgetUSD    decimal.Decimal `json:"budgetUsd"`
	ActualUSD    decimal.Decimal `json:"actualUsd"`
	ActualGTQ    decimal.Decimal `json:"actualGtq"`
	ExecutionPct decimal.Decimal `json:"executionPct"`
	AvailableUSD decimal.Decimal `json:"availableUsd"`
}

// QuoteDrillDownDTO compares what a quote estimated with what was spent
type QuoteDrillDownDTO struct {
	QuoteID       uuid.UUID       `json:"quoteId"`
	ActivityName  string          `json:"activityName"`
	QuotedCostUSD decimal.Decimal `json:"quotedCostUsd"`
	ActualUSD     decimal.Decimal `json:"actualUsd"`
	DifferenceUSD decimal.Decimal `json:"differenceUsd"`
}

type MonthlyExecutionDTO struct {
	Month     int             `json:"month"`
	BudgetUSD decimal.Decimal `json:"budgetUsd"`
	ActualUSD decimal.Decimal `json:"actualUsd"`
}

type DashboardDTO struct {
	Year      int                   `json:"year"`
	Rows      []OIExecutionDTO      `json:"rows"`
	Totals    DashboardTotalsDTO    `json:"totals"`
	Monthly   []MonthlyExecutionDTO `json:"monthly"`
	DrillDown *QuoteDrillDownDTO    `json:"drillDown,omitempty"`
}

type ReconciliationRowDTO struct {
	OICode      string          `json:"oiCode"`
	OIName      string          `json:"oiName,omitempty"`
	RecordedGTQ decimal.Decimal `json:"recordedGtq"`
	LedgerGTQ   decimal.Decimal `json:"ledgerGtq"`
	Difference  decimal.Decimal `json:"difference"`
}

type ReconciliationDTO struct {
	Year int                    `json:"year"`
	Rows []ReconciliationRowDTO `json:"rows"`
}

type ReportArchiveDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Year        int       `json:"year"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	CreatedAt   string    `json:"createdAt"`
}

// AuthUserDTO describes the caller and what their role allows
type AuthUserDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Role       UserRole `json:"role"`
	CanEdit    bool     `json:"canEdit"`
	CanManage  bool     `json:"canManage"`
	CanApprove bool     `json:"canApprove"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ============================================================================
// Request DTOs
// ============================================================================

type CreateMallRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type UpdateMallRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	IsActive *bool  `json:"isActive,omitempty"`
}

type CreateOIRequest struct {
	MallID          uuid.UUID `json:"mallId" validate:"required"`
	Code            string    `json:"code" validate:"required,max=50"`
	Name            string    `json:"name" validate:"required,max=200"`
	AnnualBudgetUSD float64   `json:"annualBudgetUsd" validate:"gte=0"`
}

type UpdateOIRequest struct {
	MallID          uuid.UUID `json:"mallId" validate:"required"`
	Code            string    `json:"code" validate:"required,max=50"`
	Name            string    `json:"name" validate:"required,max=200"`
	AnnualBudgetUSD float64   `json:"annualBudgetUsd" validate:"gte=0"`
	IsActive        *bool     `json:"isActive,omitempty"`
}

type UpsertBudgetRequest struct {
	OIID      uuid.UUID `json:"oiId" validate:"required"`
	Year      int       `json:"year" validate:"gte=2000,lte=2100"`
	Month     int       `json:"month" validate:"gte=1,lte=12"`
	BudgetUSD float64   `json:"budgetUsd" validate:"gte=0"`
}

type SetExchangeRateRequest struct {
	GTQPerUSD     float64 `json:"gtqPerUsd" validate:"gt=0"`
	EffectiveDate string  `json:"effectiveDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type CreateActivityTypeRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

type UpdateActivityTypeRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

type CreateInsumoRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	UnitType    UnitType    `json:"unitType,omitempty" validate:"omitempty,oneof=hour day unit"`
	CostGTQ     float64     `json:"costGtq" validate:"gte=0"`
	BillingMode BillingMode `json:"billingMode,omitempty" validate:"omitempty,oneof=multipliable per_activity"`
}

type UpdateInsumoRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	UnitType    UnitType    `json:"unitType" validate:"required,oneof=hour day unit"`
	CostGTQ     float64     `json:"costGtq" validate:"gte=0"`
	BillingMode BillingMode `json:"billingMode" validate:"required,oneof=multipliable per_activity"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

type ProviderRequest struct {
	Name          string       `json:"name" validate:"required,max=200"`
	LegalName     string       `json:"legalName,omitempty" validate:"max=300"`
	ProviderType  ProviderType `json:"providerType,omitempty" validate:"omitempty,oneof=certified direct"`
	NIT           string       `json:"nit,omitempty" validate:"max=30"`
	CUI           string       `json:"cui,omitempty" validate:"max=30"`
	BankName      string       `json:"bankName,omitempty" validate:"max=100"`
	AccountNumber string       `json:"accountNumber,omitempty" validate:"max=50"`
	IsActive      *bool        `json:"isActive,omitempty"`
}

type CreateQuoteRequest struct {
	ActivityName   string     `json:"activityName" validate:"required,max=300"`
	ActivityTypeID uuid.UUID  `json:"activityTypeId" validate:"required"`
	MallID         *uuid.UUID `json:"mallId,omitempty"`
	Notes          string     `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateQuoteRequest struct {
	ActivityName   string     `json:"activityName" validate:"required,max=300"`
	ActivityTypeID uuid.UUID  `json:"activityTypeId" validate:"required"`
	MallID         *uuid.UUID `json:"mallId,omitempty"`
	Notes          string     `json:"notes,omitempty" validate:"max=5000"`
}

type AddQuoteLineRequest struct {
	InsumoID   uuid.UUID `json:"insumoId" validate:"required"`
	QtyPeople  int       `json:"qtyPeople" validate:"gte=1"`
	UnitsValue int       `json:"unitsValue,omitempty" validate:"omitempty,gte=1"`
}

type UpdateQuoteLineRequest struct {
	QtyPeople  int `json:"qtyPeople" validate:"gte=1"`
	UnitsValue int `json:"unitsValue" validate:"gte=1"`
}

type ApproveQuoteRequest struct {
	// FinalSalePriceUSD defaults to the 60% margin suggestion when omitted
	FinalSalePriceUSD *float64 `json:"finalSalePriceUsd,omitempty" validate:"omitempty,gte=0"`
}

type RejectQuoteRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

type ExecuteQuoteRequest struct {
	OIID uuid.UUID `json:"oiId" validate:"required"`
}

type SaveTemplateRequest struct {
	Name string `json:"name" validate:"required,max=300"`
}

type CreateFromTemplateRequest struct {
	TemplateID   uuid.UUID `json:"templateId" validate:"required"`
	ActivityName string    `json:"activityName,omitempty" validate:"max=300"`
}

type CreateODCExpenseRequest struct {
	QuoteID     uuid.UUID  `json:"quoteId" validate:"required"`
	OIID        uuid.UUID  `json:"oiId" validate:"required"`
	ProviderID  *uuid.UUID `json:"providerId,omitempty"`
	ODCNumber   string     `json:"odcNumber" validate:"required,max=100"`
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
	AmountGTQ   float64    `json:"amountGtq" validate:"gte=0"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
}

type CreatePettyCashExpenseRequest struct {
	QuoteID        uuid.UUID `json:"quoteId" validate:"required"`
	OIID           uuid.UUID `json:"oiId" validate:"required"`
	ProviderID     uuid.UUID `json:"providerId" validate:"required"`
	DocNumber      string    `json:"docNumber" validate:"required,max=100"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	AmountGTQ      float64   `json:"amountGtq" validate:"gte=0"`
	TextAdditional string    `json:"textAdditional,omitempty" validate:"max=300"`
}

type HostRowRequest struct {
	Description string  `json:"desc" validate:"required,max=300"`
	Rate        float64 `json:"rate" validate:"gte=0"`
	Days        float64 `json:"days" validate:"gte=0"`
}

type CreateHostExpenseRequest struct {
	QuoteID    uuid.UUID        `json:"quoteId" validate:"required"`
	ProviderID uuid.UUID        `json:"providerId" validate:"required"`
	Date       string           `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Rows       []HostRowRequest `json:"rows" validate:"required,min=1,max=10,dive"`
}
