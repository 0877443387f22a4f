package api

import "fmt"

// SeedSystemPrompt frames the model as an SEO strategist for the business type.
func SeedSystemPrompt(businessType string) string {
	return fmt.Sprintf("You are an expert SEO strategist specializing in %s businesses.", businessType)
}

// SeedUserPrompt asks for high-intent seed keywords about topic.
func SeedUserPrompt(topic, businessType string) string {
	return fmt.Sprintf(`Generate 30 high-commercial-intent seed keywords for the topic "%s" related to a %s business.

Focus on:
1. High commercial intent ("buy", "best", "services")
2. Problem-solving intent
3. Comparison & review phrases
4. Industry-specific long-tail phrases
5. Local variations where appropriate

Return ONLY a JSON array of keyword strings, no explanations:`, topic, businessType)
}
