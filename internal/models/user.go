package models

import "time"

// Plan tiers. Stored as small ints, matching the billing catalog.
const (
	PlanFree    = 1
	PlanPro     = 2
	PlanPremium = 3
)

// DefaultCreditBalance is granted to every account on first sign-in.
const DefaultCreditBalance = 10

// User is an account provisioned from the external identity provider.
// ExternalID is the provider's stable id and is immutable; ID is ours.
type User struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"externalId"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Photo         string    `json:"photo"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PlanID        int       `json:"planId"`
	CreditBalance int64     `json:"creditBalance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
