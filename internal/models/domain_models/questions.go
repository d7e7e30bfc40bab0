package domain_models

import "time"

const (
	// RequestTTL is how long an unfinished request lives in the session store.
	RequestTTL = time.Hour

	// MaxAlternativeRecommendations caps alternatives per search.
	MaxAlternativeRecommendations = 5
)

// RequiredQuestions returns the ordered question keys a category asks.
func RequiredQuestions(c TravelCategory) []string {
	switch c {
	case CategoryFamily:
		return []string{"family_size", "travel_time", "priority"}
	case CategoryPets:
		return []string{"pet_type", "transport", "duration"}
	case CategoryPhoto:
		return []string{"photo_type", "difficulty"}
	case CategoryBudget:
		return []string{"budget", "days", "included"}
	case CategoryActive:
		return []string{"activity_type", "skill_level"}
	}
	return nil
}

func IsKnownQuestion(c TravelCategory, key string) bool {
	for _, q := range RequiredQuestions(c) {
		if q == key {
			return true
		}
	}
	return false
}
