// Package assets wraps the image, video, and audio capabilities behind
// soft-failure semantics: every generator performs a single attempt and
// reports absence instead of an error, so callers can offer a retry
// affordance without treating the miss as an application failure.
package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"

	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/models"
)

// MediaGenerator is the external media capability boundary.
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error)
	GenerateVideo(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, text, voiceName string) ([]byte, string, error)
}

// Uploader persists generated bytes and returns a public URL. Optional.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// Image is a generated (and possibly logo-composited) raster image.
type Image struct {
	Data     []byte
	MimeType string
	URL      string // set when an uploader is configured
}

// Audio is a generated speech clip.
type Audio struct {
	Data     []byte
	MimeType string
}

// Service builds per-feature asset prompts and runs the capability wrappers.
type Service struct {
	media    MediaGenerator
	uploader Uploader
	log      logger.Logger
	pick     func(n int) int // style qualifier selection, swappable in tests
}

// NewService creates an asset service. uploader may be nil, in which case
// images are returned inline only.
func NewService(media MediaGenerator, uploader Uploader, log logger.Logger) *Service {
	return &Service{
		media:    media,
		uploader: uploader,
		log:      log,
		pick:     rand.Intn,
	}
}

// Style qualifiers rotated into prompts so repeated generations for the same
// content do not come back visibly identical.
var styleQualifiers = []string{
	"vibrant colors, advertising style",
	"soft natural lighting, editorial look",
	"bold contrast, modern minimal design",
	"warm festive palette, celebratory mood",
	"clean studio backdrop, premium feel",
}

func (s *Service) qualifier() string {
	return styleQualifiers[s.pick(len(styleQualifiers))]
}

// AspectRatioFor returns the aspect ratio used for a feature's imagery:
// vertical for reels and festival posts, square otherwise.
func AspectRatioFor(feature models.FeatureType) string {
	if feature == models.FeatureReels || feature == models.FeatureFestival {
		return "9:16"
	}
	return "1:1"
}

// ImagePrompt builds the image prompt from the feature and content context.
func (s *Service) ImagePrompt(req models.ImageAssetRequest) string {
	var scene string
	switch req.Feature {
	case models.FeatureFestival:
		headline := req.Headline
		if headline == "" {
			headline = "Celebration"
		}
		scene = fmt.Sprintf("A festival poster for %s. Festive atmosphere, text overlay area available.", headline)
	case models.FeatureInstagram:
		scene = fmt.Sprintf("A lifestyle photo for instagram. Context: %s. Aesthetic, high quality, minimal text.", clip(req.Caption, 100))
	case models.FeatureReels:
		hook := req.Hook
		if hook == "" {
			hook = "Viral content"
		}
		scene = fmt.Sprintf("A vertical video cover image for a reel. Theme: %s. Engaging, cinematic lighting.", hook)
	default:
		scene = "A professional marketing image for a business. Modern, clean design."
	}

	return fmt.Sprintf("Create a professional, high-quality social media marketing image for %s (%s). %s Topic: %s. Photorealistic, %s, 4k.",
		orUnnamed(req.BusinessName), orUnnamed(req.BusinessType), scene, clip(req.Topic, 120), s.qualifier())
}

// GenerateImage runs one image generation attempt, compositing the logo when
// provided and uploading the result when storage is configured. Returns nil
// on any failure.
func (s *Service) GenerateImage(ctx context.Context, req models.ImageAssetRequest) *Image {
	prompt := s.ImagePrompt(req)

	data, mime, err := s.media.GenerateImage(ctx, prompt, AspectRatioFor(req.Feature))
	if err != nil {
		s.log.Warn("image generation unavailable", "feature", req.Feature, "error", err)
		return nil
	}

	if req.Logo != "" {
		data = CompositeLogo(data, []byte(req.Logo), ParseCorner(req.Corner))
		mime = "image/png"
	}

	img := &Image{Data: data, MimeType: mime}
	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, data, mime)
		if err != nil {
			// Inline payload still works; storage is best-effort
			s.log.Warn("asset upload failed", "error", err)
		} else {
			img.URL = url
		}
	}
	return img
}

// GenerateVideo runs one video generation attempt and returns the video URL,
// or "" when the capability fails.
func (s *Service) GenerateVideo(ctx context.Context, req models.VideoAssetRequest) string {
	style := req.VisualStyle
	if style == "" {
		style = "Cinematic Live Action"
	}
	hook := req.Hook
	if hook == "" {
		hook = req.Topic
	}

	prompt := fmt.Sprintf("A short vertical marketing video for %s (%s). Theme: %s. Style: %s, %s.",
		orUnnamed(req.BusinessName), orUnnamed(req.BusinessType), clip(hook, 120), style, s.qualifier())

	uri, err := s.media.GenerateVideo(ctx, prompt)
	if err != nil {
		s.log.Warn("video generation unavailable", "feature", req.Feature, "error", err)
		return ""
	}
	return uri
}

// GenerateAudio runs one speech synthesis attempt. Returns nil on failure.
func (s *Service) GenerateAudio(ctx context.Context, text, voiceGender string) *Audio {
	data, mime, err := s.media.GenerateSpeech(ctx, text, VoiceForGender(voiceGender))
	if err != nil {
		s.log.Warn("audio generation unavailable", "error", err)
		return nil
	}
	return &Audio{Data: data, MimeType: mime}
}

// DataURL renders the image as a data URL for inline transport.
func (i *Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MimeType, base64.StdEncoding.EncodeToString(i.Data))
}

// VoiceForGender maps the form selector onto the two prebuilt voices.
func VoiceForGender(gender string) string {
	if gender == "Male" {
		return "Puck"
	}
	return "Kore"
}

// clip caps a prompt fragment at n characters without splitting a rune,
// so Devanagari topics stay valid UTF-8.
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orUnnamed(s string) string {
	if s == "" {
		return "a local business"
	}
	return s
}
