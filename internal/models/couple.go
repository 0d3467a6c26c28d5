package models

import "time"

// Couple holds the shared date-night preferences collected during
// onboarding. Created exactly once per onboarding completion with
// OnboardingComplete already true.
type Couple struct {
	ID                  int64     `json:"id"`
	PrimaryUserID       int64     `json:"primary_user_id"`
	PartnerUserID       *int64    `json:"partner_user_id"`
	City                string    `json:"city"`
	Neighborhood        string    `json:"neighborhood"`
	TravelRadius        string    `json:"travel_radius"`
	Budget              string    `json:"budget"`
	Frequency           string    `json:"frequency"`
	PreferredDays       []string  `json:"preferred_days"`
	PreferredWeeknights *[]string `json:"preferred_weeknights"`
	Interests           []string  `json:"interests"`
	FoodDislikes        *string   `json:"food_dislikes"`
	DietaryRestrictions *string   `json:"dietary_restrictions"`
	AnythingElse        *string   `json:"anything_else"`
	SurprisePreference  string    `json:"surprise_preference"`
	OnboardingComplete  bool      `json:"onboarding_complete"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
