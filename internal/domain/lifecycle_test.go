package domain_test

import (
	"testing"

	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     domain.QuoteStatus
		to       domain.QuoteStatus
		expected bool
	}{
		{domain.QuoteStatusDraft, domain.QuoteStatusSent, true},
		{domain.QuoteStatusDraft, domain.QuoteStatusApproved, false},
		{domain.QuoteStatusSent, domain.QuoteStatusApproved, true},
		{domain.QuoteStatusSent, domain.QuoteStatusRejected, true},
		{domain.QuoteStatusSent, domain.QuoteStatusExecuted, false},
		{domain.QuoteStatusApproved, domain.QuoteStatusExecuted, true},
		{domain.QuoteStatusApproved, domain.QuoteStatusRejected, false},
		{domain.QuoteStatusExecuted, domain.QuoteStatusLiquidated, true},
		{domain.QuoteStatusLiquidated, domain.QuoteStatusDraft, false},
		{domain.QuoteStatusRejected, domain.QuoteStatusSent, false},
		{domain.QuoteStatusTemplate, domain.QuoteStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestQuoteStatus_Predicates(t *testing.T) {
	tests := []struct {
		status          domain.QuoteStatus
		editable        bool
		acceptsExpenses bool
		deletable       bool
		terminal        bool
	}{
		{domain.QuoteStatusDraft, true, false, true, false},
		{domain.QuoteStatusSent, false, false, false, false},
		{domain.QuoteStatusApproved, false, true, false, false},
		{domain.QuoteStatusExecuted, false, true, false, false},
		{domain.QuoteStatusLiquidated, false, false, false, true},
		{domain.QuoteStatusRejected, false, false, true, true},
		{domain.QuoteStatusTemplate, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.editable, tt.status.IsEditable(), "editable")
			assert.Equal(t, tt.acceptsExpenses, tt.status.AcceptsExpenses(), "accepts expenses")
			assert.Equal(t, tt.deletable, tt.status.IsDeletable(), "deletable")
			assert.Equal(t, tt.terminal, tt.status.IsTerminal(), "terminal")
		})
	}

	assert.False(t, domain.QuoteStatus("archived").IsValid())
}

func TestRoleCanTransition(t *testing.T) {
	tests := []struct {
		role     domain.UserRole
		to       domain.QuoteStatus
		expected bool
	}{
		{domain.RoleSeller, domain.QuoteStatusSent, true},
		{domain.RoleSeller, domain.QuoteStatusApproved, false},
		{domain.RoleSeller, domain.QuoteStatusExecuted, false},
		{domain.RoleAuthorized, domain.QuoteStatusApproved, false},
		{domain.RoleAuthorized, domain.QuoteStatusRejected, false},
		{domain.RoleAuthorized, domain.QuoteStatusExecuted, true},
		{domain.RoleAuthorized, domain.QuoteStatusLiquidated, true},
		{domain.RoleAdmin, domain.QuoteStatusApproved, true},
		{domain.RoleAdmin, domain.QuoteStatusRejected, true},
		{domain.RoleSystem, domain.QuoteStatusApproved, true},
		{domain.RoleAdmin, domain.QuoteStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.RoleCanTransition(tt.role, tt.to))
		})
	}
}

func TestUserRole_IsValid(t *testing.T) {
	for _, role := range []domain.UserRole{domain.RoleAdmin, domain.RoleAuthorized, domain.RoleSeller, domain.RoleSystem} {
		assert.True(t, role.IsValid(), role)
	}
	assert.False(t, domain.UserRole("viewer").IsValid())
	assert.False(t, domain.UserRole("").IsValid())
}
