package models

// PlanTier is the subscription level governing quota and output richness.
type PlanTier string

const (
	PlanFree PlanTier = "free"
	PlanPaid PlanTier = "paid"
)

// Valid reports whether the tier is one of the known values.
func (p PlanTier) Valid() bool {
	return p == PlanFree || p == PlanPaid
}

// FeatureType is the closed set of content kinds the system can generate.
type FeatureType string

const (
	FeatureInstagram FeatureType = "instagram" // caption post
	FeatureReels     FeatureType = "reels"     // scripted video
	FeatureWhatsApp  FeatureType = "whatsapp"  // bulk message
	FeatureFestival  FeatureType = "festival"  // festival pack
	FeatureCalendar  FeatureType = "calendar"  // 30-day plan, paid only
	FeatureGMB       FeatureType = "gmb"       // business-listing pack, paid only
	FeaturePoster    FeatureType = "poster"    // poster copy
)

// AllFeatures lists every feature type, used by validation and tests.
var AllFeatures = []FeatureType{
	FeatureInstagram,
	FeatureReels,
	FeatureWhatsApp,
	FeatureFestival,
	FeatureCalendar,
	FeatureGMB,
	FeaturePoster,
}

// Valid reports whether the feature is one of the known values.
func (f FeatureType) Valid() bool {
	for _, known := range AllFeatures {
		if f == known {
			return true
		}
	}
	return false
}

// PaidOnly reports whether the feature is available to paid plans only.
func (f FeatureType) PaidOnly() bool {
	return f == FeatureCalendar || f == FeatureGMB
}

// RequiresTopic reports whether offer/topic details are required before
// submission. The two calendar-style features omit the topic field entirely.
func (f FeatureType) RequiresTopic() bool {
	return f != FeatureCalendar && f != FeatureGMB
}

// FormInput carries the user-supplied generation parameters.
type FormInput struct {
	BusinessType   string `json:"business_type"`
	BusinessName   string `json:"business_name"`
	City           string `json:"city"`
	Language       string `json:"language"` // Hindi, English, Hinglish
	Tone           string `json:"tone"`
	OfferDetails   string `json:"offer_details"`
	FestivalName   string `json:"festival_name,omitempty"`
	Duration       string `json:"duration,omitempty"` // 15s, 30s, 45s
	Objective      string `json:"objective,omitempty"`
	HookStyle      string `json:"hook_style,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	VoiceGender    string `json:"voice_gender,omitempty"` // Male, Female, Duo
	VisualStyle    string `json:"visual_style,omitempty"`
	Logo           string `json:"logo,omitempty"` // base64-encoded logo image
}

// Error codes surfaced to clients in ResponseEnvelope.Code.
const (
	CodeLimitReached     = "LIMIT_REACHED"
	CodeAPIError         = "API_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnknownError     = "UNKNOWN_ERROR"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
)

// ResponseEnvelope is the uniform contract returned by the generation
// orchestrator to every caller. Exactly one of {successful data payload,
// error+code+message} is populated.
type ResponseEnvelope struct {
	Success     bool           `json:"success"`
	Type        string         `json:"type"`
	UserPlan    PlanTier       `json:"user_plan"`
	Data        map[string]any `json:"data"`
	UpgradeNote string         `json:"upgrade_note,omitempty"`
	Error       bool           `json:"error,omitempty"`
	Code        string         `json:"code,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// IsError reports whether the envelope carries an error indication.
func (e *ResponseEnvelope) IsError() bool {
	return e.Error || e.Code != ""
}

// ErrorEnvelope builds an error-shaped envelope for the given feature and plan.
func ErrorEnvelope(feature FeatureType, plan PlanTier, code, message string) ResponseEnvelope {
	return ResponseEnvelope{
		Success:  false,
		Type:     string(feature),
		UserPlan: plan,
		Data:     map[string]any{},
		Error:    true,
		Code:     code,
		Message:  message,
	}
}
