package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/onboarding"
	"github.com/jaryd-hermann/dateful/internal/repository"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyOnboarded = errors.New("onboarding already completed")
)

// ValidationError carries the user-facing message for a rejected answer set.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OnboardingService turns a completed answer set into a couple profile:
// primary name update, partner find-or-create, couple insert, and user
// linking, all in one transaction. Welcome texts go out after commit on a
// best-effort basis.
type OnboardingService struct {
	db     *pgxpool.Pool
	users  *repository.UserRepository
	sms    SMSService
	appURL string
}

func NewOnboardingService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	sms SMSService,
	appURL string,
) *OnboardingService {
	return &OnboardingService{
		db:     db,
		users:  users,
		sms:    sms,
		appURL: appURL,
	}
}

func (s *OnboardingService) Complete(
	ctx context.Context,
	userID int64,
	answers onboarding.AnswerSet,
) (*models.Couple, error) {
	if msg := onboarding.ValidateAll(answers); msg != "" {
		return nil, &ValidationError{Message: msg}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.CoupleID != nil {
		return nil, ErrAlreadyOnboarded
	}

	partnerPhone := normalizedAnswerPhone(answers.Get("partner_phone"))

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUsers := repository.NewUserRepository(tx)
	txCouples := repository.NewCoupleRepository(tx)

	if err := txUsers.UpdateName(ctx, user.ID, answers.Get("primary_name").Value()); err != nil {
		return nil, fmt.Errorf("update primary name: %w", err)
	}

	var partnerID *int64
	if partnerPhone != "" {
		partner, err := txUsers.GetByPhone(ctx, partnerPhone)
		if errors.Is(err, pgx.ErrNoRows) {
			partner = &models.User{
				Phone: partnerPhone,
				Name:  answers.Get("partner_name").Value(),
				Role:  models.RolePartner,
			}
			if err := txUsers.CreateUser(ctx, partner); err != nil {
				return nil, fmt.Errorf("create partner: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("look up partner: %w", err)
		}
		partnerID = &partner.ID
	}

	couple, err := txCouples.Create(ctx, buildCoupleInput(user.ID, partnerID, answers))
	if err != nil {
		return nil, err
	}

	if err := txUsers.SetCoupleID(ctx, user.ID, couple.ID); err != nil {
		return nil, fmt.Errorf("link primary user: %w", err)
	}
	if partnerID != nil {
		if err := txUsers.SetCoupleID(ctx, *partnerID, couple.ID); err != nil {
			return nil, fmt.Errorf("link partner user: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.sendWelcomeTexts(user.Phone, partnerPhone, answers)
	return couple, nil
}

func buildCoupleInput(primaryID int64, partnerID *int64, answers onboarding.AnswerSet) repository.CreateCoupleInput {
	city := strings.TrimSpace(answers.Get("city").Value())

	neighborhood := ""
	if _, rest, found := strings.Cut(city, ","); found {
		neighborhood = strings.TrimSpace(rest)
	}

	var weeknights *[]string
	if nights := compact(answers.Get("preferred_weeknights").Values()); len(nights) > 0 {
		weeknights = &nights
	}

	return repository.CreateCoupleInput{
		PrimaryUserID:       primaryID,
		PartnerUserID:       partnerID,
		City:                city,
		Neighborhood:        neighborhood,
		TravelRadius:        orDefault(answers.Get("travel_radius").Value(), "borough"),
		Budget:              orDefault(answers.Get("budget").Value(), "$$"),
		Frequency:           orDefault(answers.Get("frequency").Value(), "biweekly"),
		PreferredDays:       compact(answers.Get("preferred_days").Values()),
		PreferredWeeknights: weeknights,
		Interests:           compact(answers.Get("interests").Values()),
		FoodDislikes:        trimmedOrNil(answers.Get("food_dislikes").Value()),
		DietaryRestrictions: trimmedOrNil(answers.Get("dietary_restrictions").Value()),
		AnythingElse:        trimmedOrNil(answers.Get("anything_else").Value()),
		SurprisePreference:  orDefault(answers.Get("surprise_preference").Value(), "approve_first"),
	}
}

// sendWelcomeTexts runs after commit. Delivery failures are logged, never
// surfaced: the profile is already created.
func (s *OnboardingService) sendWelcomeTexts(primaryPhone, partnerPhone string, answers onboarding.AnswerSet) {
	if s.sms == nil {
		return
	}

	primaryName := orDefault(answers.Get("primary_name").Value(), "Your partner")
	partnerName := orDefault(answers.Get("partner_name").Value(), "there")
	city := orDefault(strings.TrimSpace(answers.Get("city").Value()), "your city")

	if primaryPhone != "" {
		welcome := fmt.Sprintf(
			"Hey %s, I'm Lucy, your Dateful planning assistant. I'll send you some ideas in a few minutes to start getting a sense of your and %s's ideal date night.",
			primaryName, partnerName,
		)
		if err := s.sms.SendSMS(primaryPhone, welcome); err != nil {
			log.Printf("welcome sms to primary: %v", err)
		}
	}

	if partnerPhone != "" {
		invite := fmt.Sprintf(
			"Hey %s! %s signed you both up for Dateful — I'm your date night planning assistant. I'll help find amazing things to do together in %s. To start, I'd love to learn what you're into. Check out your date ideas here → %s/cards",
			partnerName, primaryName, city, s.appURL,
		)
		if err := s.sms.SendSMS(partnerPhone, invite); err != nil {
			log.Printf("invite sms to partner: %v", err)
		}
	}
}

// normalizedAnswerPhone maps a raw 10-digit answer to E.164; anything that
// does not normalize is used as entered.
func normalizedAnswerPhone(answer onboarding.Answer) string {
	raw := strings.TrimSpace(answer.Value())
	if raw == "" {
		return ""
	}
	if normalized, err := onboarding.NormalizePhone(raw); err == nil {
		return normalized
	}
	return raw
}

func compact(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	return kept
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
