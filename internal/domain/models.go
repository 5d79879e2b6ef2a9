package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BaseModel carries the identity and audit timestamps shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole is the role claim carried by authenticated users
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleAuthorized UserRole = "authorized"
	RoleSeller     UserRole = "seller"
	// RoleSystem is assigned to API key callers
	RoleSystem UserRole = "system"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAuthorized, RoleSeller, RoleSystem:
		return true
	}
	return false
}

// QuoteStatus is the lifecycle state of a quote
type QuoteStatus string

const (
	QuoteStatusDraft      QuoteStatus = "draft"
	QuoteStatusSent       QuoteStatus = "sent"
	QuoteStatusApproved   QuoteStatus = "approved"
	QuoteStatusExecuted   QuoteStatus = "executed"
	QuoteStatusLiquidated QuoteStatus = "liquidated"
	QuoteStatusRejected   QuoteStatus = "rejected"
	QuoteStatusTemplate   QuoteStatus = "template"
)

// UnitType is the billing unit of an insumo
type UnitType string

const (
	UnitTypeHour UnitType = "hour"
	UnitTypeDay  UnitType = "day"
	UnitTypeUnit UnitType = "unit"
)

// BillingMode decides whether the unit count multiplies an insumo's cost
type BillingMode string

const (
	BillingModeMultipliable BillingMode = "multipliable"
	BillingModePerActivity  BillingMode = "per_activity"
)

// ProviderType classifies suppliers for accounting
type ProviderType string

const (
	ProviderTypeCertified ProviderType = "certified"
	ProviderTypeDirect    ProviderType = "direct"
)

// ExpenseCategory is how an actual expense was paid
type ExpenseCategory string

const (
	ExpenseCategoryODC       ExpenseCategory = "odc"
	ExpenseCategoryPettyCash ExpenseCategory = "petty_cash"
	ExpenseCategoryHost      ExpenseCategory = "host"
)

// Mall is a retail location where activations run
type Mall struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null;uniqueIndex"`
	IsActive bool   `gorm:"not null;default:true"`
}

// OI is an internal order: the accounting code expenses are booked against
type OI struct {
	BaseModel
	MallID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Mall            *Mall           `gorm:"foreignKey:MallID"`
	Code            string          `gorm:"column:oi_code;type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"column:oi_name;type:varchar(200);not null"`
	AnnualBudgetUSD decimal.Decimal `gorm:"column:annual_budget_usd;type:numeric(14,2);not null;default:0"`
	IsActive        bool            `gorm:"not null;default:true"`
}

func (OI) TableName() string { return "ois" }

// Budget is the monthly budget of an OI
type Budget struct {
	BaseModel
	OIID      uuid.UUID       `gorm:"column:oi_id;type:uuid;not null;uniqueIndex:idx_budget_period"`
	OI        *OI             `gorm:"foreignKey:OIID"`
	Year      int             `gorm:"not null;uniqueIndex:idx_budget_period"`
	Month     int             `gorm:"not null;uniqueIndex:idx_budget_period"`
	BudgetUSD decimal.Decimal `gorm:"column:budget_usd;type:numeric(14,2);not null;default:0"`
}

// ExchangeRate is a GTQ per USD conversion rate. At most one row is active.
type ExchangeRate struct {
	BaseModel
	EffectiveDate time.Time       `gorm:"type:date;not null"`
	GTQPerUSD     decimal.Decimal `gorm:"column:gtq_per_usd;type:numeric(10,4);not null"`
	IsActive      bool            `gorm:"not null;default:false;index"`
	SetByID       string          `gorm:"type:varchar(100)"`
	SetByName     string          `gorm:"type:varchar(200)"`
}

// ActivityType classifies quotes (sampling, event, stand...)
type ActivityType struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// Insumo is a billable supply or service used to build quote lines
type Insumo struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	UnitType    UnitType        `gorm:"type:varchar(20);not null"`
	CostGTQ     decimal.Decimal `gorm:"column:cost_gtq;type:numeric(14,2);not null;default:0"`
	BillingMode BillingMode     `gorm:"type:varchar(20);not null"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// Provider is a supplier that invoices expenses
type Provider struct {
	BaseModel
	Name          string       `gorm:"type:varchar(200);not null;uniqueIndex"`
	LegalName     string       `gorm:"type:varchar(300)"`
	ProviderType  ProviderType `gorm:"type:varchar(20)"`
	NIT           string       `gorm:"column:nit;type:varchar(30)"`
	CUI           string       `gorm:"column:cui;type:varchar(30)"`
	BankName      string       `gorm:"type:varchar(100)"`
	AccountNumber string       `gorm:"type:varchar(50)"`
	IsActive      bool         `gorm:"not null;default:true"`
}

// ExpenseType is a reporting label for expenses
type ExpenseType struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	IsActive bool   `gorm:"not null;default:true"`
}

// Quote is a cost estimate for a mall activation
type Quote struct {
	BaseModel
	CreatedByID    string        `gorm:"type:varchar(100);not null;index"`
	CreatedByName  string        `gorm:"type:varchar(200)"`
	MallID         *uuid.UUID    `gorm:"type:uuid;index"`
	Mall           *Mall         `gorm:"foreignKey:MallID"`
	OIID           *uuid.UUID    `gorm:"column:oi_id;type:uuid;index"`
	OI             *OI           `gorm:"foreignKey:OIID"`
	ActivityName   string        `gorm:"type:varchar(300);not null"`
	ActivityTypeID uuid.UUID     `gorm:"type:uuid;not null;index"`
	ActivityType   *ActivityType `gorm:"foreignKey:ActivityTypeID"`
	Status         QuoteStatus   `gorm:"type:varchar(20);not null;index"`

	TotalCostGTQ      decimal.Decimal  `gorm:"column:total_cost_gtq;type:numeric(14,2);not null;default:0"`
	TotalCostUSD      decimal.Decimal  `gorm:"column:total_cost_usd;type:numeric(14,2);not null;default:0"`
	SuggestedPriceM50 decimal.Decimal  `gorm:"column:suggested_price_usd_m50;type:numeric(14,2);not null;default:0"`
	SuggestedPriceM60 decimal.Decimal  `gorm:"column:suggested_price_usd_m60;type:numeric(14,2);not null;default:0"`
	SuggestedPriceM70 decimal.Decimal  `gorm:"column:suggested_price_usd_m70;type:numeric(14,2);not null;default:0"`
	FinalSalePriceUSD *decimal.Decimal `gorm:"column:final_sale_price_usd;type:numeric(14,2)"`

	Notes           string     `gorm:"type:text"`
	SourceQuoteID   *uuid.UUID `gorm:"type:uuid"`
	SentAt          *time.Time
	DecidedAt       *time.Time
	DecidedByID     string `gorm:"type:varchar(100)"`
	DecidedByName   string `gorm:"type:varchar(200)"`
	RejectionReason string `gorm:"type:text"`
	ExecutedAt      *time.Time
	LiquidatedAt    *time.Time

	Lines []QuoteLine `gorm:"foreignKey:QuoteID"`
}

// QuoteLine is one insumo on a quote
type QuoteLine struct {
	BaseModel
	QuoteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InsumoID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Insumo      *Insumo         `gorm:"foreignKey:InsumoID"`
	QtyPeople   int             `gorm:"not null;default:1"`
	UnitsValue  int             `gorm:"not null;default:1"`
	LineCostGTQ decimal.Decimal `gorm:"column:line_cost_gtq;type:numeric(14,2);not null;default:0"`
	LineCostUSD decimal.Decimal `gorm:"column:line_cost_usd;type:numeric(14,2);not null;default:0"`
}

// HostRow is one service line on a host/talent receipt
type HostRow struct {
	Description string  `json:"desc"`
	Rate        float64 `json:"rate"`
	Days        float64 `json:"days"`
}

// HostRows is persisted as a JSON array
type HostRows []HostRow

// Value implements driver.Valuer
func (h HostRows) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (h *HostRows) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into HostRows", value)
	}
	return json.Unmarshal(raw, h)
}

// Expense is an actual cost booked against an OI for an approved or executed quote
type Expense struct {
	BaseModel
	Date     time.Time       `gorm:"type:date;not null;index"`
	Year     int             `gorm:"not null;index"`
	Month    int             `gorm:"not null"`
	MallID   *uuid.UUID      `gorm:"type:uuid;index"`
	Mall     *Mall           `gorm:"foreignKey:MallID"`
	OIID     uuid.UUID       `gorm:"column:oi_id;type:uuid;not null;index"`
	OI       *OI             `gorm:"foreignKey:OIID"`
	QuoteID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quote    *Quote          `gorm:"foreignKey:QuoteID"`
	Category ExpenseCategory `gorm:"type:varchar(20);not null;index"`

	Description    string          `gorm:"type:text"`
	AmountGTQ      decimal.Decimal `gorm:"column:amount_gtq;type:numeric(14,2);not null"`
	AmountUSD      decimal.Decimal `gorm:"column:amount_usd;type:numeric(14,2);not null"`
	RateGTQPerUSD  decimal.Decimal `gorm:"column:rate_gtq_per_usd;type:numeric(10,4);not null"`
	DocNumber      string          `gorm:"type:varchar(100)"`
	ODCNumber      string          `gorm:"column:odc_number;type:varchar(100)"`
	TextAdditional string          `gorm:"type:varchar(300)"`
	HostDetails    HostRows        `gorm:"type:jsonb"`
	ProviderID     *uuid.UUID      `gorm:"type:uuid;index"`
	Provider       *Provider       `gorm:"foreignKey:ProviderID"`
	CreatedByID    string          `gorm:"type:varchar(100)"`
	CreatedByName  string          `gorm:"type:varchar(200)"`
}

// ReportArchive records a generated report stored in blob storage
type ReportArchive struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null"`
	Kind        string `gorm:"type:varchar(50);not null;index"`
	Year        int    `gorm:"not null"`
	StoragePath string `gorm:"type:varchar(500);not null"`
	SizeBytes   int64  `gorm:"not null"`
	ContentType string `gorm:"type:varchar(100)"`
}

// AllModels lists every persisted type, in dependency order, for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Mall{},
		&OI{},
		&Budget{},
		&ExchangeRate{},
		&ActivityType{},
		&Insumo{},
		&Provider{},
		&ExpenseType{},
		&Quote{},
		&QuoteLine{},
		&Expense{},
		&ReportArchive{},
	}
}
