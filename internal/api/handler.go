package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"intellect/internal/imagegen"
	"intellect/internal/logger"
	"intellect/internal/matcher"
	"intellect/internal/model"
	"intellect/internal/quota"

	"github.com/gin-gonic/gin"
)

// AdvocateMatcher finds the best-suited advocate for a case.
type AdvocateMatcher interface {
	FindBestMatch(ctx context.Context, caseDescription, country string) (*matcher.MatchResult, error)
}

// ImageGenerator produces raw PNG bytes for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Handler serves the public API endpoints.
type Handler struct {
	matcher         AdvocateMatcher
	generator       matcher.Generator
	images          ImageGenerator
	enforcementGate *quota.Gate
	imageGate       *quota.Gate
	logger          *slog.Logger
}

// NewHandler creates the public API handler.
func NewHandler(
	advocateMatcher AdvocateMatcher,
	generator matcher.Generator,
	images ImageGenerator,
	enforcementGate, imageGate *quota.Gate,
	log *slog.Logger,
) *Handler {
	return &Handler{
		matcher:         advocateMatcher,
		generator:       generator,
		images:          images,
		enforcementGate: enforcementGate,
		imageGate:       imageGate,
		logger:          log.With("component", "api"),
	}
}

type enforcementRequest struct {
	Description   string `json:"description"`
	Country       string `json:"country"`
	WalletAddress string `json:"walletAddress"`
}

type advocateDetails struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Experience  string `json:"experience"`
	Rating      string `json:"rating"`
	Skills      string `json:"skills"`
	Description string `json:"description"`
}

type bestMatch struct {
	AdvocateDetails advocateDetails `json:"advocateDetails"`
	ReferralReason  string          `json:"referralReason"`
	MatchConfidence string          `json:"matchConfidence"`
}

type enforcementResponse struct {
	RequestedCountry string    `json:"requestedCountry"`
	BestMatch        bestMatch `json:"bestMatch"`
	RemainingCredits int       `json:"remainingCredits"`
}

// EnforcementHandler finds the best advocate for an IP case. Requests with a
// wallet address are rate limited; anonymous requests use the call site's
// configured bypass.
func (h *Handler) EnforcementHandler(c *gin.Context) {
	var req enforcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Description == "" || req.Country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description and country are required"})
		return
	}

	decision, err := h.enforcementGate.Check(req.WalletAddress)
	if err != nil {
		if errors.Is(err, quota.ErrIdentityRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
			return
		}
		h.logger.Error("Quota check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Enforcement search failed"})
		return
	}
	if !decision.Admitted {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   h.limitMessage("searches", h.enforcementGate.Limit(), decision.RetryAt),
			"retryAt": decision.RetryAt,
		})
		return
	}

	result, err := h.matcher.FindBestMatch(c.Request.Context(), req.Description, req.Country)
	if err != nil {
		var noAdvocates *matcher.NoAdvocatesError
		switch {
		case errors.As(err, &noAdvocates):
			c.JSON(http.StatusNotFound, gin.H{"error": noAdvocates.Error()})
		case errors.Is(err, matcher.ErrNoMatch):
			c.JSON(http.StatusNotFound, gin.H{"error": "No suitable advocate found matching the case requirements"})
		default:
			h.logger.Error("Best-match search failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Enforcement search failed"})
		}
		return
	}

	selected := result.Selected
	if err := h.enforcementGate.Record(req.WalletAddress, map[string]interface{}{
		"description":      req.Description,
		"country":          req.Country,
		"selectedAdvocate": selected.Name,
	}); err != nil {
		h.logger.Error("Failed to record usage", "error", err, "identity_suffix", logger.Redact(req.WalletAddress))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Enforcement search failed"})
		return
	}

	c.JSON(http.StatusOK, enforcementResponse{
		RequestedCountry: req.Country,
		BestMatch: bestMatch{
			AdvocateDetails: advocateDetails{
				Name:        selected.Name,
				Email:       selected.Email,
				Country:     selected.Country,
				Experience:  fmt.Sprintf("%d years", selected.Experience),
				Rating:      fmt.Sprintf("%.1f/10", selected.Rating),
				Skills:      selected.Skills,
				Description: selected.Description,
			},
			ReferralReason:  selected.Reason,
			MatchConfidence: fmt.Sprintf("%d%%", selected.ConfidenceScore),
		},
		RemainingCredits: decision.Remaining,
	})
}

type generateImageRequest struct {
	Prompt        string `json:"prompt"`
	WalletAddress string `json:"walletAddress"`
}

// GenerateImageHandler generates an image for the prompt and returns it as a
// base64-encoded square PNG. A wallet address is mandatory here; the gate is
// consulted before the generation call and charged only after it succeeds.
func (h *Handler) GenerateImageHandler(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Prompt == "" || req.WalletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt and wallet address are required"})
		return
	}

	decision, err := h.imageGate.Check(req.WalletAddress)
	if err != nil {
		if errors.Is(err, quota.ErrIdentityRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt and wallet address are required"})
			return
		}
		h.logger.Error("Quota check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}
	if !decision.Admitted {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   h.limitMessage("images", h.imageGate.Limit(), decision.RetryAt),
			"retryAt": decision.RetryAt,
		})
		return
	}

	data, err := h.images.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("Image generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}

	square, err := imagegen.SquarePNG(data, imagegen.SquareSize)
	if err != nil {
		h.logger.Error("Image normalization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}

	if err := h.imageGate.Record(req.WalletAddress, map[string]interface{}{
		"prompt": req.Prompt,
	}); err != nil {
		h.logger.Error("Failed to record usage", "error", err, "identity_suffix", logger.Redact(req.WalletAddress))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"imageBuffer":      base64.StdEncoding.EncodeToString(square),
		"remainingCredits": decision.Remaining,
	})
}

// UsageHandler reports the current allowance for an identity without
// consuming a credit.
func (h *Handler) UsageHandler(c *gin.Context) {
	identity := c.Query("walletAddress")
	if identity == "" {
		identity = c.Query("email")
	}
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address or email is required"})
		return
	}

	action := c.DefaultQuery("action", model.ActionImageGeneration)
	var gate *quota.Gate
	switch action {
	case model.ActionImageGeneration:
		gate = h.imageGate
	case model.ActionEnforcementSearch:
		gate = h.enforcementGate
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown action: %s", action)})
		return
	}

	decision, err := gate.Check(identity)
	if err != nil {
		h.logger.Error("Quota check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}

	// Decision.Remaining is the allowance left after an admitted request
	// consumes its credit. The probe consumes nothing, so it reports the
	// credits available right now.
	available := decision.Remaining
	if decision.Admitted {
		available = decision.Remaining + 1
	}

	c.JSON(http.StatusOK, gin.H{
		"action":    action,
		"limit":     gate.Limit(),
		"remaining": available,
		"retryAt":   decision.RetryAt,
	})
}

// limitMessage renders the user-facing denial, including a human-readable
// reset clock time when one is known.
func (h *Handler) limitMessage(noun string, limit int, retryAt *time.Time) string {
	reset := "24 hours"
	if retryAt != nil {
		reset = retryAt.Format("3:04 PM")
	}
	return fmt.Sprintf("Daily limit reached. You get %d free %s every 24 hours. Next credit available at %s.", limit, noun, reset)
}
