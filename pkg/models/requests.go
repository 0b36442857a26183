package models

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	Feature FeatureType `json:"feature" validate:"required"`
	Form    FormInput   `json:"form"`
}

// ImageAssetRequest is the body of POST /api/v1/assets/image.
type ImageAssetRequest struct {
	Feature      FeatureType `json:"feature" validate:"required"`
	BusinessName string      `json:"business_name"`
	BusinessType string      `json:"business_type"`
	Topic        string      `json:"topic"`
	Caption      string      `json:"caption,omitempty"`
	Hook         string      `json:"hook,omitempty"`
	Headline     string      `json:"headline,omitempty"`
	Logo         string      `json:"logo,omitempty"`   // base64, composited onto the result
	Corner       string      `json:"corner,omitempty"` // bottom-right (default), bottom-left, top-right, top-left
}

// VideoAssetRequest is the body of POST /api/v1/assets/video.
type VideoAssetRequest struct {
	Feature      FeatureType `json:"feature" validate:"required"`
	BusinessName string      `json:"business_name"`
	BusinessType string      `json:"business_type"`
	Topic        string      `json:"topic"`
	Hook         string      `json:"hook,omitempty"`
	VisualStyle  string      `json:"visual_style,omitempty"`
}

// AudioAssetRequest is the body of POST /api/v1/assets/audio.
type AudioAssetRequest struct {
	Text        string `json:"text" validate:"required"`
	VoiceGender string `json:"voice_gender,omitempty" validate:"omitempty,oneof=Male Female Duo"`
}

// AssetResponse is the soft-failure wrapper for asset endpoints. A failed
// generation is not an application error; Available is false and the caller
// shows a retry affordance.
type AssetResponse struct {
	Available bool   `json:"available"`
	Image     string `json:"image,omitempty"`     // base64 data URL
	URL       string `json:"url,omitempty"`       // storage or video URL
	Audio     string `json:"audio,omitempty"`     // base64 audio payload
	MimeType  string `json:"mime_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// QuotaStatus reports daily usage for the UI hint.
type QuotaStatus struct {
	Plan      PlanTier `json:"plan"`
	Used      int      `json:"used"`
	Limit     int      `json:"limit"`
	Remaining int      `json:"remaining"`
	Unlimited bool     `json:"unlimited"`
}
