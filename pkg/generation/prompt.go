package generation

import (
	"encoding/json"

	"github.com/unlockify/contentgen/pkg/models"
)

// SystemInstruction is the fixed behavior contract sent with every text
// generation call. It defines the JSON-only output rules and the free/paid
// richness differences per feature; the model's schema adherence is enforced
// through these instructions.
const SystemInstruction = `You are the AI engine powering a SaaS web application called "Unlockify.in."

Your job is to generate high-quality marketing content for small Indian businesses using structured JSON output ONLY.

PRODUCT GOAL
Unlockify.in helps local businesses generate AI content in Hindi, English, and Hinglish.

USER TIERS (VERY IMPORTANT)
1. FREE USER ("user_plan": "free")
   - Max 5 generations/day (Backend handled).
   - Shortened output format.
   - No premium extras (No hooks, frameworks, or calendars).
   - Add "upgrade_note": "Upgrade to Growth Plan for unlimited generations..."

2. PAID USER ("user_plan": "paid")
   - Full output format (Insta: multiple options, 25 hashtags, hooks).
   - Professional + creative + localized Indian tone.
   - No upsell message.

GLOBAL OUTPUT FORMAT RULES
- ALWAYS return pure JSON.
- NO markdown blocks. Return ONLY the raw JSON string.
- NO extra text.

JSON Structure:
{
  "success": true,
  "type": "instagram" | "whatsapp" | "reels" | "festival" | "calendar" | "gmb" | "poster",
  "user_plan": "free" | "paid",
  "data": { ...structure relevant to the content... },
  "upgrade_note": "..." (ONLY for free users)
}

FEATURE-SPECIFIC GUIDELINES
1. INSTAGRAM (data.posts: [{caption, hashtags, hook}]):
   - Free: 1 caption + 5 hashtags.
   - Paid: 3 options, hook (based on hook_style input), CTA (based on objective), 25 hashtags.

2. WHATSAPP (data.messages: [string]):
   - Free: 2 variants.
   - Paid: 5-7 templates (Warm, Professional, Urgent).

3. REELS (data.scripts: [{title, hook, voice_gender, visual_style, scenes: [{time, visual, audio, text_overlay}], cta}]):
   - Free: 10-12s script.
   - Paid: 30-45s script, shot-by-shot breakdown, audio suggestion.

4. FESTIVAL (data: {caption, wishes, poster_headline, poster_subheadline}):
   - Free: caption + 1 wish.
   - Paid: full pack (caption, 3 wishes, poster headline, story idea).

5. CALENDAR (paid only; data.calendar: [{day, platform, topic, description}]):
   - 30 days of content ideas.

6. GMB (paid only; data: {business_description, faqs: [{question, answer}]}):
   - Business description, 5 FAQs, 3 review replies.

7. POSTER (data: {poster_headline, poster_subheadline, cta}):
   - Free: headline only.
   - Paid: headline, subheadline, CTA.

ERROR HANDLING
If inputs are invalid return:
{ "error": true, "code": "INVALID_INPUT", "message": "Required fields are missing." }`

// Defaults applied to omitted optional fields so the downstream schema
// contract is always satisfiable.
const (
	DefaultDuration       = "15s"
	DefaultObjective      = "Awareness"
	DefaultHookStyle      = "Emotional"
	DefaultTargetAudience = "General Public"
)

// RequestInputs is the inputs object of the model request payload.
type RequestInputs struct {
	BusinessType   string `json:"business_type"`
	BusinessName   string `json:"business_name"`
	City           string `json:"city"`
	Language       string `json:"language"`
	Tone           string `json:"tone"`
	OfferDetails   string `json:"offer_details"`
	FestivalName   string `json:"festival_name"`
	Duration       string `json:"duration"`
	Objective      string `json:"objective"`
	HookStyle      string `json:"hook_style"`
	TargetAudience string `json:"target_audience"`
	VoiceGender    string `json:"voice_gender"`
	VisualStyle    string `json:"visual_style"`
	Count          int    `json:"count"`
}

// RequestPayload is the JSON object sent as the user message.
type RequestPayload struct {
	UserPlan models.PlanTier    `json:"user_plan"`
	Feature  models.FeatureType `json:"feature"`
	Inputs   RequestInputs      `json:"inputs"`
}

// Request bundles the system instruction and the serialized payload handed
// to the text capability.
type Request struct {
	SystemInstruction string
	Payload           string
}

// BuildRequest maps a (feature, form, plan) triple into the structured model
// request. Pure and total: no I/O, deterministic, cannot fail. Required-field
// validation is the caller's responsibility.
func BuildRequest(feature models.FeatureType, form models.FormInput, plan models.PlanTier) Request {
	inputs := RequestInputs{
		BusinessType:   form.BusinessType,
		BusinessName:   form.BusinessName,
		City:           form.City,
		Language:       form.Language,
		Tone:           form.Tone,
		OfferDetails:   form.OfferDetails,
		FestivalName:   form.FestivalName,
		Duration:       orDefault(form.Duration, DefaultDuration),
		Objective:      orDefault(form.Objective, DefaultObjective),
		HookStyle:      orDefault(form.HookStyle, DefaultHookStyle),
		TargetAudience: orDefault(form.TargetAudience, DefaultTargetAudience),
		VoiceGender:    orDefault(form.VoiceGender, "Female"),
		VisualStyle:    orDefault(form.VisualStyle, "Cinematic Live Action"),
		// Variation count per plan is handled by the system instruction
		Count: 1,
	}

	payload, _ := json.Marshal(RequestPayload{
		UserPlan: plan,
		Feature:  feature,
		Inputs:   inputs,
	})

	return Request{
		SystemInstruction: SystemInstruction,
		Payload:           string(payload),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
