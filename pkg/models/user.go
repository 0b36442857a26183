package models

import "time"

// UserProfile is the persisted business profile for a user.
type UserProfile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	BusinessName    string   `json:"business_name"`
	BusinessType    string   `json:"business_type"`
	City            string   `json:"city"`
	DefaultLanguage string   `json:"default_language"`
	Plan            PlanTier `json:"plan"`
}

// ProfileUpdateRequest carries a partial profile update. Nil fields are left
// untouched.
type ProfileUpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string `json:"phone,omitempty"`
	BusinessName    *string `json:"business_name,omitempty"`
	BusinessType    *string `json:"business_type,omitempty"`
	City            *string `json:"city,omitempty"`
	DefaultLanguage *string `json:"default_language,omitempty" validate:"omitempty,oneof=Hindi English Hinglish"`
}

// HistoryItem is one persisted generation record. Never mutated after
// creation; deleted only by explicit user action.
type HistoryItem struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Feature   FeatureType      `json:"feature"`
	Input     FormInput        `json:"input"`
	Output    ResponseEnvelope `json:"output"`
}

// ErrorResponse is the generic HTTP error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
