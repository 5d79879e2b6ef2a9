package mapper

import (
	"time"

	"github.com/spectrum-media/quote-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToMallDTO converts Mall to MallDTO
func ToMallDTO(mall *domain.Mall) domain.MallDTO {
	return domain.MallDTO{
		ID:        mall.ID,
		Name:      mall.Name,
		IsActive:  mall.IsActive,
		CreatedAt: formatTime(mall.CreatedAt),
	}
}

// ToOIDTO converts OI to OIDTO
func ToOIDTO(oi *domain.OI) domain.OIDTO {
	dto := domain.OIDTO{
		ID:              oi.ID,
		MallID:          oi.MallID,
		Code:            oi.Code,
		Name:            oi.Name,
		AnnualBudgetUSD: oi.AnnualBudgetUSD,
		IsActive:        oi.IsActive,
	}
	if oi.Mall != nil {
		dto.MallName = oi.Mall.Name
	}
	return dto
}

// ToBudgetDTO converts Budget to BudgetDTO
func ToBudgetDTO(budget *domain.Budget) domain.BudgetDTO {
	dto := domain.BudgetDTO{
		ID:        budget.ID,
		OIID:      budget.OIID,
		Year:      budget.Year,
		Month:     budget.Month,
		BudgetUSD: budget.BudgetUSD,
	}
	if budget.OI != nil {
		dto.OICode = budget.OI.Code
	}
	return dto
}

// ToExchangeRateDTO converts a stored rate to its DTO
func ToExchangeRateDTO(rate *domain.ExchangeRate) domain.ExchangeRateDTO {
	id := rate.ID
	return domain.ExchangeRateDTO{
		ID:            &id,
		GTQPerUSD:     rate.GTQPerUSD,
		EffectiveDate: rate.EffectiveDate.Format(domain.DateLayout),
		IsActive:      rate.IsActive,
		SetByName:     rate.SetByName,
	}
}

// ToActivityTypeDTO converts ActivityType to ActivityTypeDTO
func ToActivityTypeDTO(at *domain.ActivityType) domain.ActivityTypeDTO {
	return domain.ActivityTypeDTO{
		ID:          at.ID,
		Name:        at.Name,
		Description: at.Description,
		IsActive:    at.IsActive,
	}
}

// ToInsumoDTO converts Insumo to InsumoDTO
func ToInsumoDTO(insumo *domain.Insumo) domain.InsumoDTO {
	return domain.InsumoDTO{
		ID:          insumo.ID,
		Name:        insumo.Name,
		UnitType:    insumo.UnitType,
		CostGTQ:     insumo.CostGTQ,
		BillingMode: insumo.BillingMode,
		IsActive:    insumo.IsActive,
	}
}

// ToProviderDTO converts Provider to ProviderDTO
func ToProviderDTO(p *domain.Provider) domain.ProviderDTO {
	return domain.ProviderDTO{
		ID:            p.ID,
		Name:          p.Name,
		LegalName:     p.LegalName,
		ProviderType:  p.ProviderType,
		NIT:           p.NIT,
		CUI:           p.CUI,
		BankName:      p.BankName,
		AccountNumber: p.AccountNumber,
		IsActive:      p.IsActive,
	}
}

// ToExpenseTypeDTO converts ExpenseType to ExpenseTypeDTO
func ToExpenseTypeDTO(et *domain.ExpenseType) domain.ExpenseTypeDTO {
	return domain.ExpenseTypeDTO{ID: et.ID, Name: et.Name, IsActive: et.IsActive}
}

// ToQuoteLineDTO converts QuoteLine to QuoteLineDTO
func ToQuoteLineDTO(line *domain.QuoteLine) domain.QuoteLineDTO {
	dto := domain.QuoteLineDTO{
		ID:          line.ID,
		InsumoID:    line.InsumoID,
		QtyPeople:   line.QtyPeople,
		UnitsValue:  line.UnitsValue,
		LineCostGTQ: line.LineCostGTQ,
		LineCostUSD: line.LineCostUSD,
	}
	if line.Insumo != nil {
		dto.InsumoName = line.Insumo.Name
		dto.BillingMode = line.Insumo.BillingMode
		dto.UnitType = line.Insumo.UnitType
	}
	return dto
}

// ToQuoteDTO converts Quote to QuoteDTO, including lines when they are loaded
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	dto := domain.QuoteDTO{
		ID:                quote.ID,
		ActivityName:      quote.ActivityName,
		ActivityTypeID:    quote.ActivityTypeID,
		MallID:            quote.MallID,
		OIID:              quote.OIID,
		Status:            quote.Status,
		TotalCostGTQ:      quote.TotalCostGTQ,
		TotalCostUSD:      quote.TotalCostUSD,
		SuggestedPriceM50: quote.SuggestedPriceM50,
		SuggestedPriceM60: quote.SuggestedPriceM60,
		SuggestedPriceM70: quote.SuggestedPriceM70,
		FinalSalePriceUSD: quote.FinalSalePriceUSD,
		Notes:             quote.Notes,
		SourceQuoteID:     quote.SourceQuoteID,
		CreatedByID:       quote.CreatedByID,
		CreatedByName:     quote.CreatedByName,
		DecidedByName:     quote.DecidedByName,
		RejectionReason:   quote.RejectionReason,
		SentAt:            formatTimePtr(quote.SentAt),
		DecidedAt:         formatTimePtr(quote.DecidedAt),
		ExecutedAt:        formatTimePtr(quote.ExecutedAt),
		LiquidatedAt:      formatTimePtr(quote.LiquidatedAt),
		CreatedAt:         formatTime(quote.CreatedAt),
		UpdatedAt:         formatTime(quote.UpdatedAt),
	}
	if quote.ActivityType != nil {
		dto.ActivityTypeName = quote.ActivityType.Name
	}
	if quote.Mall != nil {
		dto.MallName = quote.Mall.Name
	}
	if quote.OI != nil {
		dto.OICode = quote.OI.Code
	}
	if len(quote.Lines) > 0 {
		dto.Lines = make([]domain.QuoteLineDTO, len(quote.Lines))
		for i := range quote.Lines {
			dto.Lines[i] = ToQuoteLineDTO(&quote.Lines[i])
		}
	}
	return dto
}

// ToExpenseDTO converts Expense to ExpenseDTO
func ToExpenseDTO(e *domain.Expense) domain.ExpenseDTO {
	dto := domain.ExpenseDTO{
		ID:             e.ID,
		Date:           e.Date.Format(domain.DateLayout),
		Year:           e.Year,
		Month:          e.Month,
		Category:       e.Category,
		Description:    e.Description,
		AmountGTQ:      e.AmountGTQ,
		AmountUSD:      e.AmountUSD,
		RateGTQPerUSD:  e.RateGTQPerUSD,
		QuoteID:        e.QuoteID,
		OIID:           e.OIID,
		MallID:         e.MallID,
		ProviderID:     e.ProviderID,
		DocNumber:      e.DocNumber,
		ODCNumber:      e.ODCNumber,
		TextAdditional: e.TextAdditional,
		HostDetails:    e.HostDetails,
		CreatedByName:  e.CreatedByName,
		CreatedAt:      formatTime(e.CreatedAt),
	}
	if e.Quote != nil {
		dto.ActivityName = e.Quote.ActivityName
	}
	if e.OI != nil {
		dto.OICode = e.OI.Code
	}
	if e.Mall != nil {
		dto.MallName = e.Mall.Name
	}
	if e.Provider != nil {
		dto.ProviderName = e.Provider.Name
	}
	return dto
}

// ToReportArchiveDTO converts ReportArchive to ReportArchiveDTO
func ToReportArchiveDTO(a *domain.ReportArchive) domain.ReportArchiveDTO {
	return domain.ReportArchiveDTO{
		ID:          a.ID,
		Name:        a.Name,
		Kind:        a.Kind,
		Year:        a.Year,
		SizeBytes:   a.SizeBytes,
		ContentType: a.ContentType,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}
