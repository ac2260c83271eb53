package matcher

import (
	"fmt"
	"strings"

	"intellect/internal/model"
)

// formatAdvocates renders each advocate into the fixed textual block the
// selection prompt embeds.
func formatAdvocates(advocates []model.Advocate) string {
	blocks := make([]string, len(advocates))
	for i, advocate := range advocates {
		blocks[i] = fmt.Sprintf(`Advocate %d:
Name: %s
Description: %s
Skills: %s
Experience: %d years
Gender: %s
Rating: %.1f/10
Country: %s
Email: %s
`,
			i+1,
			advocate.Name,
			advocate.Description,
			advocate.Skills,
			advocate.Experience,
			advocate.Gender,
			advocate.Rating,
			advocate.Country,
			advocate.Email,
		)
	}
	return strings.Join(blocks, "\n")
}

// buildPrompt assembles the selection prompt. It demands exactly one
// selection in a fixed output grammar so the response parsers can extract
// the result.
func buildPrompt(caseDescription, advocatesText, country string) string {
	return fmt.Sprintf(`
Task: Based on the intellectual property case description and available IP advocates from %[1]s, select EXACTLY 1 BEST-SUITED advocate who is the CLOSEST MATCH and most qualified to handle this specific case.

Critical Selection Criteria (in order of priority):
1. **Expertise Match**: The advocate's skills and specialization must directly align with the specific type of IP case (trademark, copyright, patent, brand theft, design rights, etc.)
2. **Experience Relevance**: Higher experience in the relevant field should be prioritized
3. **Rating**: Higher rated advocates indicate proven track record
4. **Case-Specific Fit**: Consider any unique aspects of the case (e.g., e-commerce, pharmaceuticals, software, etc.)

Important Considerations:
- ALL advocates listed are from %[1]s as requested by the user.
- Analyze the case description carefully to identify the PRIMARY type of IP issue (trademark, copyright, patent, design, brand protection, etc.)
- Match the advocate's skills PRECISELY to the case requirements
- Consider the advocate's rating and experience level as secondary factors
- Select the ONE advocate who is the ABSOLUTE BEST MATCH - not just any qualified advocate

Rules:
- Do NOT mention advocates not in the list.
- Select EXACTLY 1 advocate - THE SINGLE BEST MATCH ONLY.
- Provide a COMPREHENSIVE reason (3-4 sentences) explaining:
  * Why this advocate is the BEST and CLOSEST match for this specific case
  * How their specific skills align with the case requirements
  * Why they are better suited than other available advocates
  * What makes them uniquely qualified for this particular IP issue
- Provide a confidence score (0-100) indicating how well this advocate matches the case requirements.
- Format the response EXACTLY as:

Selected Advocate:
1. <Advocate Name> - <Comprehensive reason explaining why this advocate is the absolute best match, their specific expertise alignment, and why they stand out for this case> - Confidence: <score>

IP Case Description:
%[2]s

Available IP Advocates from %[1]s:
%[3]s
`, country, caseDescription, advocatesText)
}
