package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
)

type CoupleRepository struct {
	db DBTX
}

func NewCoupleRepository(db DBTX) *CoupleRepository {
	return &CoupleRepository{db: db}
}

type CreateCoupleInput struct {
	PrimaryUserID       int64
	PartnerUserID       *int64
	City                string
	Neighborhood        string
	TravelRadius        string
	Budget              string
	Frequency           string
	PreferredDays       []string
	PreferredWeeknights *[]string
	Interests           []string
	FoodDislikes        *string
	DietaryRestrictions *string
	AnythingElse        *string
	SurprisePreference  string
}

// Create inserts the couple with onboarding_complete already true; profile
// creation and the completion flag flip are one atomic write.
func (r *CoupleRepository) Create(ctx context.Context, input CreateCoupleInput) (*models.Couple, error) {
	query := `
		INSERT INTO couples (
			primary_user_id, partner_user_id, city, neighborhood, travel_radius,
			budget, frequency, preferred_days, preferred_weeknights, interests,
			food_dislikes, dietary_restrictions, anything_else, surprise_preference,
			onboarding_complete
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE)
		RETURNING ` + coupleColumns + `
	`
	return scanCouple(r.db.QueryRow(ctx, query,
		input.PrimaryUserID,
		input.PartnerUserID,
		input.City,
		input.Neighborhood,
		input.TravelRadius,
		input.Budget,
		input.Frequency,
		input.PreferredDays,
		input.PreferredWeeknights,
		input.Interests,
		input.FoodDislikes,
		input.DietaryRestrictions,
		input.AnythingElse,
		input.SurprisePreference,
	))
}

func (r *CoupleRepository) GetByID(ctx context.Context, id int64) (*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1`
	return scanCouple(r.db.QueryRow(ctx, query, id))
}

const coupleColumns = `id, primary_user_id, partner_user_id, city, neighborhood, travel_radius,
		budget, frequency, preferred_days, preferred_weeknights, interests,
		food_dislikes, dietary_restrictions, anything_else, surprise_preference,
		onboarding_complete, created_at, updated_at`

func scanCouple(row pgx.Row) (*models.Couple, error) {
	var couple models.Couple
	err := row.Scan(
		&couple.ID,
		&couple.PrimaryUserID,
		&couple.PartnerUserID,
		&couple.City,
		&couple.Neighborhood,
		&couple.TravelRadius,
		&couple.Budget,
		&couple.Frequency,
		&couple.PreferredDays,
		&couple.PreferredWeeknights,
		&couple.Interests,
		&couple.FoodDislikes,
		&couple.DietaryRestrictions,
		&couple.AnythingElse,
		&couple.SurprisePreference,
		&couple.OnboardingComplete,
		&couple.CreatedAt,
		&couple.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &couple, nil
}
