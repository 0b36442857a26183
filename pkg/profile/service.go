package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/models"
	"github.com/unlockify/contentgen/pkg/phone"
)

// ErrNotFound is returned when no profile exists for a user.
var ErrNotFound = errors.New("profile not found")

// Recorder observes query latency.
type Recorder interface {
	RecordDBQuery(operation string, duration time.Duration)
}

// Service manages business profiles.
type Service struct {
	db  *sql.DB
	log logger.Logger
	rec Recorder
}

// NewService creates a new profile service
func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{db: db, log: log}
}

// WithMetrics attaches a query latency recorder and returns the service.
func (s *Service) WithMetrics(rec Recorder) *Service {
	s.rec = rec
	return s
}

func (s *Service) observe(operation string, start time.Time) {
	if s.rec != nil {
		s.rec.RecordDBQuery(operation, time.Since(start))
	}
}

const profileColumns = `name, email, phone, business_name, business_type, city, default_language, plan`

// Get returns the profile for a user, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	defer s.observe("profile_select", time.Now())

	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)

	var p models.UserProfile
	err := row.Scan(&p.Name, &p.Email, &p.Phone, &p.BusinessName, &p.BusinessType,
		&p.City, &p.DefaultLanguage, &p.Plan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

// GetOrDefault returns the stored profile, or a fresh free-tier profile when
// the user has never saved one.
func (s *Service) GetOrDefault(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &models.UserProfile{DefaultLanguage: "English", Plan: models.PlanFree}, nil
	}
	return p, err
}

// Update applies a partial update and returns the resulting profile. The
// profile row is created on first update. Phone numbers are normalized to
// E.164 before storage.
func (s *Service) Update(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*models.UserProfile, error) {
	current, err := s.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Email != nil {
		current.Email = *req.Email
	}
	if req.Phone != nil {
		normalized, err := phone.Normalize(*req.Phone)
		if err != nil {
			return nil, fmt.Errorf("invalid phone: %w", err)
		}
		current.Phone = normalized
	}
	if req.BusinessName != nil {
		current.BusinessName = *req.BusinessName
	}
	if req.BusinessType != nil {
		current.BusinessType = *req.BusinessType
	}
	if req.City != nil {
		current.City = *req.City
	}
	if req.DefaultLanguage != nil {
		current.DefaultLanguage = *req.DefaultLanguage
	}

	if err := s.upsert(ctx, userID, current); err != nil {
		return nil, err
	}
	return current, nil
}

// SetPlan switches a user between the free and paid tiers.
func (s *Service) SetPlan(ctx context.Context, userID string, plan models.PlanTier) (*models.UserProfile, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("unknown plan: %s", plan)
	}
	current, err := s.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.Plan = plan
	if err := s.upsert(ctx, userID, current); err != nil {
		return nil, err
	}
	s.log.Info("plan changed", "user_id", userID, "plan", plan)
	return current, nil
}

func (s *Service) upsert(ctx context.Context, userID string, p *models.UserProfile) error {
	defer s.observe("profile_upsert", time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, `+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			business_name = EXCLUDED.business_name,
			business_type = EXCLUDED.business_type,
			city = EXCLUDED.city,
			default_language = EXCLUDED.default_language,
			plan = EXCLUDED.plan,
			updated_at = now()`,
		userID, p.Name, p.Email, p.Phone, p.BusinessName, p.BusinessType,
		p.City, p.DefaultLanguage, p.Plan)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
