package domain_models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TravelCategory string

const (
	CategoryFamily TravelCategory = "family"
	CategoryPets   TravelCategory = "pets"
	CategoryPhoto  TravelCategory = "photo"
	CategoryBudget TravelCategory = "budget"
	CategoryActive TravelCategory = "active"
)

// AllCategories lists categories in the order they are offered to users.
var AllCategories = []TravelCategory{
	CategoryFamily,
	CategoryPets,
	CategoryPhoto,
	CategoryBudget,
	CategoryActive,
}

func ParseTravelCategory(s string) (TravelCategory, error) {
	c := TravelCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown travel category %q", s)
	}
	return c, nil
}

func (c TravelCategory) Valid() bool {
	switch c {
	case CategoryFamily, CategoryPets, CategoryPhoto, CategoryBudget, CategoryActive:
		return true
	}
	return false
}

func (c TravelCategory) String() string { return string(c) }

// DisplayName is the label shown on the category picker.
func (c TravelCategory) DisplayName() string {
	switch c {
	case CategoryFamily:
		return "🏖 Семейное путешествие"
	case CategoryPets:
		return "🐾 Путешествие с питомцами"
	case CategoryPhoto:
		return "📸 Лучшие места для фото"
	case CategoryBudget:
		return "💰 Бюджетное путешествие"
	case CategoryActive:
		return "🏔 Активный отдых"
	}
	return string(c)
}

type UserAnswer struct {
	QuestionKey string `json:"question_key"`
	AnswerValue string `json:"answer_value"`
	AnswerText  string `json:"answer_text"`
}

// Answers keeps user answers keyed by question key in first-insertion order.
// Re-answering a question replaces the stored answer in place; no history is
// kept. The zero value is ready to use.
type Answers struct {
	order []string
	items map[string]UserAnswer
}

func (a *Answers) Set(ans UserAnswer) {
	if a.items == nil {
		a.items = make(map[string]UserAnswer)
	}
	if _, ok := a.items[ans.QuestionKey]; !ok {
		a.order = append(a.order, ans.QuestionKey)
	}
	a.items[ans.QuestionKey] = ans
}

func (a Answers) Get(key string) (UserAnswer, bool) {
	ans, ok := a.items[key]
	return ans, ok
}

func (a Answers) Has(key string) bool {
	_, ok := a.items[key]
	return ok
}

func (a Answers) Len() int { return len(a.order) }

func (a Answers) Keys() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// All returns answers in insertion order.
func (a Answers) All() []UserAnswer {
	out := make([]UserAnswer, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.items[k])
	}
	return out
}

// MarshalJSON encodes answers as an ordered array so the order survives a
// round trip through the session store.
func (a Answers) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.All())
}

func (a *Answers) UnmarshalJSON(data []byte) error {
	var list []UserAnswer
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = Answers{}
	for _, ans := range list {
		if ans.QuestionKey == "" {
			return fmt.Errorf("answer without question_key")
		}
		a.Set(ans)
	}
	return nil
}

type TravelRequest struct {
	UserID    int64          `json:"user_id"`
	Category  TravelCategory `json:"category"`
	Answers   Answers        `json:"answers"`
	CreatedAt string         `json:"created_at,omitempty"`
}

func NewTravelRequest(userID int64, category TravelCategory, createdAt string) *TravelRequest {
	return &TravelRequest{
		UserID:    userID,
		Category:  category,
		CreatedAt: createdAt,
	}
}

// AddAnswer stores an answer, discarding any previous answer to the same question.
func (r *TravelRequest) AddAnswer(questionKey, answerValue, answerText string) {
	r.Answers.Set(UserAnswer{
		QuestionKey: questionKey,
		AnswerValue: answerValue,
		AnswerText:  answerText,
	})
}

func (r *TravelRequest) GetAnswer(questionKey string) (UserAnswer, bool) {
	return r.Answers.Get(questionKey)
}

func (r *TravelRequest) IsComplete(required []string) bool {
	for _, q := range required {
		if !r.Answers.Has(q) {
			return false
		}
	}
	return true
}

// IsCategoryComplete checks the request against its own category's questions.
func (r *TravelRequest) IsCategoryComplete() bool {
	return r.IsComplete(RequiredQuestions(r.Category))
}

// UserProgress tracks where a user is in the question flow.
type UserProgress struct {
	Category        TravelCategory `json:"category"`
	CurrentQuestion int            `json:"current_question"`
}
