package domain

// quoteTransitions lists the statuses reachable from each status.
// Templates are never transitioned; they are cloned.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent},
	QuoteStatusSent:     {QuoteStatusApproved, QuoteStatusRejected},
	QuoteStatusApproved: {QuoteStatusExecuted},
	QuoteStatusExecuted: {QuoteStatusLiquidated},
}

// transitionRoles lists the roles allowed to move a quote into a status
var transitionRoles = map[QuoteStatus][]UserRole{
	QuoteStatusSent:       {RoleSeller, RoleAuthorized, RoleAdmin},
	QuoteStatusApproved:   {RoleAdmin},
	QuoteStatusRejected:   {RoleAdmin},
	QuoteStatusExecuted:   {RoleAdmin, RoleAuthorized},
	QuoteStatusLiquidated: {RoleAdmin, RoleAuthorized},
}

// IsValid reports whether s is a known status
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusApproved, QuoteStatusExecuted,
		QuoteStatusLiquidated, QuoteStatusRejected, QuoteStatusTemplate:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows s -> next
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether header and lines may change
func (s QuoteStatus) IsEditable() bool {
	return s == QuoteStatusDraft
}

// AcceptsExpenses reports whether actual expenses may be booked against the quote
func (s QuoteStatus) AcceptsExpenses() bool {
	return s == QuoteStatusApproved || s == QuoteStatusExecuted
}

// IsDeletable reports whether the quote may be removed
func (s QuoteStatus) IsDeletable() bool {
	return s == QuoteStatusDraft || s == QuoteStatusTemplate || s == QuoteStatusRejected
}

// IsTerminal reports whether no further transition exists
func (s QuoteStatus) IsTerminal() bool {
	return len(quoteTransitions[s]) == 0
}

// RoleCanTransition reports whether role may move a quote into status to.
// System callers (API key) are trusted for every transition.
func RoleCanTransition(role UserRole, to QuoteStatus) bool {
	if role == RoleSystem {
		return true
	}
	for _, allowed := range transitionRoles[to] {
		if allowed == role {
			return true
		}
	}
	return false
}

// EditorRoles may create and edit quotes
var EditorRoles = []UserRole{RoleSeller, RoleAuthorized, RoleAdmin}

// ManagerRoles may execute quotes, record expenses and maintain catalogs
var ManagerRoles = []UserRole{RoleAuthorized, RoleAdmin}

// ApproverRoles may approve or reject quotes
var ApproverRoles = []UserRole{RoleAdmin}
