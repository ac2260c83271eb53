package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type promptRequest struct {
	Subject       string `json:"subject"`
	Style         string `json:"style"`
	Environment   string `json:"environment"`
	Genre         string `json:"genre"`
	TimePeriod    string `json:"timePeriod"`
	ArtMedium     string `json:"artMedium"`
	Mood          string `json:"mood"`
	Lighting      string `json:"lighting"`
	ColorPalette  string `json:"colorPalette"`
	Composition   string `json:"composition"`
	CustomDetails string `json:"customDetails"`
}

// GeneratePromptHandler turns structured image criteria into a single
// plain-text generation prompt.
func (h *Handler) GeneratePromptHandler(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	prompt, err := h.generator.Generate(c.Request.Context(), buildWriterPrompt(req))
	if err != nil {
		h.logger.Error("Prompt generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "prompt": prompt})
}

func buildWriterPrompt(req promptRequest) string {
	return fmt.Sprintf(`
You are an expert prompt writer for an AI image generation model.
Your task is to generate a single paragraph, plain text prompt based on the following user-provided criteria.
Do not use any bold, italic, or any other special formatting.
The prompt should be descriptive, detailed, and evocative to help the AI generate a high-quality image.

User Criteria:
- Main Subject: %s
- Artistic Style: %s
- Environment: %s
- Genre: %s
- Time Period: %s
- Art Medium: %s
- Mood: %s
- Lighting: %s
- Color Palette: %s
- Composition: %s
- Additional Details: %s

Based on these criteria, generate a creative and detailed prompt.
`,
		orDefault(req.Subject, "not specified"),
		orDefault(req.Style, "not specified"),
		orDefault(req.Environment, "not specified"),
		orDefault(req.Genre, "not specified"),
		orDefault(req.TimePeriod, "not specified"),
		orDefault(req.ArtMedium, "not specified"),
		orDefault(req.Mood, "not specified"),
		orDefault(req.Lighting, "not specified"),
		orDefault(req.ColorPalette, "not specified"),
		orDefault(req.Composition, "not specified"),
		orDefault(req.CustomDetails, "none"),
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
