package service

import (
	"errors"
	"strings"
)

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when no user is present on the context
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInactiveReference is returned when a request points at a deactivated catalog row
	ErrInactiveReference = errors.New("referenced catalog item is inactive")
)

// Catalog errors
var (
	ErrMallNotFound         = errors.New("mall not found")
	ErrOINotFound           = errors.New("OI not found")
	ErrBudgetNotFound       = errors.New("budget not found")
	ErrActivityTypeNotFound = errors.New("activity type not found")
	ErrInsumoNotFound       = errors.New("insumo not found")
	ErrProviderNotFound     = errors.New("provider not found")

	ErrDuplicateMall         = errors.New("a mall with this name already exists")
	ErrDuplicateOICode       = errors.New("an OI with this code already exists")
	ErrDuplicateActivityType = errors.New("an activity type with this name already exists")
	ErrDuplicateInsumo       = errors.New("an insumo with this name already exists")
	ErrDuplicateProvider     = errors.New("a provider with this name already exists")
)

// Quote errors
var (
	ErrQuoteNotFound     = errors.New("quote not found")
	ErrQuoteLineNotFound = errors.New("quote line not found")

	// ErrInvalidTransition is returned when the lifecycle does not allow the requested status change
	ErrInvalidTransition = errors.New("invalid quote status transition")

	// ErrQuoteNotEditable is returned when lines or header change outside draft
	ErrQuoteNotEditable = errors.New("quote can only be edited while in draft")

	// ErrQuoteHasNoLines is returned when sending an empty quote
	ErrQuoteHasNoLines = errors.New("quote has no lines")

	// ErrQuoteNotDeletable is returned when deleting a quote past draft
	ErrQuoteNotDeletable = errors.New("only draft, template or rejected quotes can be deleted")

	// ErrNotATemplate is returned when cloning from a quote that is not a template
	ErrNotATemplate = errors.New("quote is not a template")

	// ErrOIMallMismatch is returned when executing with an OI of another mall
	ErrOIMallMismatch = errors.New("OI does not belong to the quote's mall")
)

// Expense errors
var (
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrQuoteNotAcceptingExpenses is returned when booking against a quote that is not approved or executed
	ErrQuoteNotAcceptingExpenses = errors.New("expenses can only be recorded against approved or executed quotes")

	// ErrQuoteHasNoOI is returned when a host receipt targets a quote without an assigned OI
	ErrQuoteHasNoOI = errors.New("quote has no assigned OI")
)

// Report errors
var (
	ErrReportArchiveNotFound = errors.New("report archive not found")

	// ErrDataWarehouseDisabled is returned when reconciliation is requested without a warehouse connection
	ErrDataWarehouseDisabled = errors.New("data warehouse is not configured")

	// ErrStorageUnavailable is returned when archive storage is not configured
	ErrStorageUnavailable = errors.New("report storage is not configured")
)

// isUniqueViolation reports whether err is a unique constraint failure
// (PostgreSQL "duplicate key" or SQLite "UNIQUE constraint failed")
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
