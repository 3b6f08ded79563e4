package domain

import (
	"time"
)

// SubscriptionPlan enumerates the subscription tiers.
type SubscriptionPlan string

const (
	PlanBasic   SubscriptionPlan = "basic"
	PlanPremium SubscriptionPlan = "premium"
)

// Token grant amounts. The assistant cost is checked before the external
// call and deducted after it succeeds.
const (
	SignupTokens       = 100
	DailyTokens        = 10
	QuizPassTokens     = 50
	UpgradeTokens      = 1000
	AssistantTokenCost = 1
)

// User represents an account holder.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile carries the subscription tier and the token ledger. It is
// created in the same transaction as its user.
type UserProfile struct {
	ID                 string
	UserID             string
	SubscriptionPlan   SubscriptionPlan
	Tokens             int
	LastTokenGrantDate time.Time // date precision; zero if never granted
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPremium reports whether the profile is on the premium plan.
func (p *UserProfile) IsPremium() bool {
	return p.SubscriptionPlan == PlanPremium
}

// AddTokens credits the balance.
func (p *UserProfile) AddTokens(amount int) {
	p.Tokens += amount
}

// DeductTokens debits the balance. Returns false without changing the
// balance if it would go negative.
func (p *UserProfile) DeductTokens(amount int) bool {
	if p.Tokens < amount {
		return false
	}
	p.Tokens -= amount
	return true
}

// HasTokens reports whether the balance covers the given amount.
func (p *UserProfile) HasTokens(amount int) bool {
	return p.Tokens >= amount
}

// GrantDailyTokens credits the daily allowance once per calendar day.
// Returns false (no-op) when already granted on the given date.
func (p *UserProfile) GrantDailyTokens(today time.Time) bool {
	if sameDate(p.LastTokenGrantDate, today) {
		return false
	}
	p.Tokens += DailyTokens
	p.LastTokenGrantDate = today
	return true
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
