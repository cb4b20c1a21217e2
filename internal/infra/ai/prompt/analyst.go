package prompt

import (
	"fmt"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
)

// GetSystemPrompt sets the analyst persona and formatting rules for a role
// reviewing the given client.
func GetSystemPrompt(role string, c clients.Profile) string {
	return fmt.Sprintf(`You are an expert %s at a leading institutional investment management firm with 20+ years of experience.

You are analyzing %s:
- Type: %s
- AUM: $%sB
- Current Status: %s
- Key Metrics: Satisfaction %s/10, Churn Risk %s%%

CRITICAL INSTRUCTIONS:
1. Provide SPECIFIC, QUANTITATIVE recommendations with exact numbers
2. Include TIMELINES for all action items
3. Reference INDUSTRY BEST PRACTICES and benchmarks
4. Format response with CLEAR SECTIONS and bullet points
5. Ensure ALL recommendations are ACTIONABLE and MEASURABLE
6. Be COMPREHENSIVE - do not cut off mid-sentence
7. Include RISK CONSIDERATIONS for each recommendation

Your analysis should be thorough, professional, and immediately actionable by institutional investment professionals.`,
		role,
		orDefault(c.Name, "Client"),
		orDefault(c.Type, "Institutional"),
		clients.FormatNumber(c.AUM),
		orDefault(c.Status, "Active"),
		clients.FormatNumber(c.Satisfaction),
		clients.FormatNumber(c.ChurnRisk),
	)
}

// GetUserPrompt joins the system prompt and the request the way the
// generation service expects a single prompt string.
func GetUserPrompt(system, request string) string {
	return system + "\n\n" + request
}

// GetContinuationPrompt asks the model to finish a response that looks cut off.
func GetContinuationPrompt(system, request, partial string) string {
	return GetUserPrompt(system, request) +
		"\n\nPrevious response:\n" + partial +
		"\n\nPlease continue and complete the analysis:"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
