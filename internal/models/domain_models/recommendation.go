package domain_models

import "strings"

type TravelRecommendation struct {
	Destination   string   `json:"destination"`
	Description   string   `json:"description"`
	Highlights    []string `json:"highlights"`
	PracticalInfo string   `json:"practical_info"`
	EstimatedCost *string  `json:"estimated_cost,omitempty"`
	Duration      *string  `json:"duration,omitempty"`
	BestTime      *string  `json:"best_time,omitempty"`
}

// StringPtr is a helper for the optional recommendation fields.
func StringPtr(s string) *string { return &s }

// FormatForTelegram renders the recommendation as chat markdown.
func (r TravelRecommendation) FormatForTelegram() string {
	var b strings.Builder
	b.WriteString("🌍 **" + r.Destination + "**\n\n")
	b.WriteString(r.Description + "\n\n")

	if len(r.Highlights) > 0 {
		b.WriteString("✨ **Основные достопримечательности:**\n")
		for _, h := range r.Highlights {
			b.WriteString("• " + h + "\n")
		}
		b.WriteString("\n")
	}

	if r.PracticalInfo != "" {
		b.WriteString("📋 **Практическая информация:**\n" + r.PracticalInfo + "\n\n")
	}
	if r.EstimatedCost != nil && *r.EstimatedCost != "" {
		b.WriteString("💰 **Примерная стоимость:** " + *r.EstimatedCost + "\n")
	}
	if r.Duration != nil && *r.Duration != "" {
		b.WriteString("⏱ **Рекомендуемая продолжительность:** " + *r.Duration + "\n")
	}
	if r.BestTime != nil && *r.BestTime != "" {
		b.WriteString("📅 **Лучшее время для поездки:** " + *r.BestTime + "\n")
	}
	return b.String()
}
