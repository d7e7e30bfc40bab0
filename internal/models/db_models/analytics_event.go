package db_models

type AnalyticsEventType string

const (
	EventCategoryUsage  AnalyticsEventType = "category_usage"
	EventRecommendation AnalyticsEventType = "recommendation"
	EventUserAction     AnalyticsEventType = "user_action"
)

const (
	ActionAlternativeRequest = "alternative_request"
	ActionFallbackServed     = "fallback_served"
)

// AnalyticsEvent is one append-only usage record.
type AnalyticsEvent struct {
	BaseModel
	EventType   AnalyticsEventType `gorm:"type:varchar(32);not null;index"`
	Category    string             `gorm:"type:varchar(16);index"`
	Action      string             `gorm:"type:varchar(64)"`
	Destination string             `gorm:"type:text"`
	UserID      int64              `gorm:"index"`
}

func (AnalyticsEvent) TableName() string { return "analytics_events" }
