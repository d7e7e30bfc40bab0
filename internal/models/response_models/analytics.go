package response_models

import "time"

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type TopDestination struct {
	Destination string `json:"destination"`
	Count       int64  `json:"count"`
}

type AnalyticsSummary struct {
	Range               TimeRange        `json:"range"`
	CategoryStarts      []CategoryStat   `json:"category_starts"`
	Recommendations     []CategoryStat   `json:"recommendations"`
	AlternativeRequests int64            `json:"alternative_requests"`
	FallbacksServed     int64            `json:"fallbacks_served"`
	TopDestinations     []TopDestination `json:"top_destinations"`
}
