package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"tripcraft/internal/models/domain_models"
	"tripcraft/pkg/llm"
	"tripcraft/pkg/logger"
)

const (
	placeholderDestination   = "Рекомендация от ИИ"
	placeholderHighlight     = "Подробности в описании"
	placeholderPracticalInfo = "Обратитесь к специалисту для уточнения деталей"

	defaultDestination   = "Неизвестное место"
	defaultDescription   = "Описание недоступно"
	defaultPracticalInfo = "Информация уточняется"

	placeholderDescriptionLimit = 1000
	heuristicDescriptionLimit   = 500
	destinationScanLines        = 5
)

// PromptFormatterInterface converts travel requests into model prompts and
// model output back into recommendations. ParseResponse never fails.
type PromptFormatterInterface interface {
	BuildPrompt(request *domain_models.TravelRequest) []llm.Message
	BuildAlternativePrompt(request *domain_models.TravelRequest, exclude []string) []llm.Message
	ParseResponse(raw string) domain_models.TravelRecommendation
}

type PromptFormatter struct {
	log *logger.Logger
}

func NewPromptFormatter(log *logger.Logger) PromptFormatterInterface {
	if log == nil {
		log = logger.NewNop()
	}
	return &PromptFormatter{log: log.With("service", "PromptFormatter")}
}

const baseSystemPrompt = `Ты - опытный консультант по путешествиям с 15-летним стажем. Твоя задача - предоставлять персонализированные рекомендации путешествий на основе предпочтений пользователя.

ВАЖНЫЕ ПРИНЦИПЫ:
1. Всегда учитывай бюджет и предпочтения пользователя
2. Предлагай конкретные места с практической информацией
3. Включай актуальную информацию о визах, транспорте, жилье
4. Учитывай сезонность и погодные условия
5. Предоставляй реалистичные оценки стоимости

ФОРМАТ ОТВЕТА:
Отвечай в следующем JSON формате:
{
  "destination": "Название места назначения",
  "description": "Подробное описание места и почему оно подходит пользователю",
  "highlights": ["Список", "основных", "достопримечательностей"],
  "practical_info": "Практическая информация: виза, транспорт, лучшее время для поездки",
  "estimated_cost": "Примерная стоимость поездки",
  "duration": "Рекомендуемая продолжительность",
  "best_time": "Лучшее время для поездки"
}

Если JSON формат невозможен, структурируй ответ четко с заголовками.`

func categoryRules(c domain_models.TravelCategory) string {
	switch c {
	case domain_models.CategoryFamily:
		return `СПЕЦИАЛИЗАЦИЯ: Семейные путешествия
- Приоритет безопасности и комфорта для детей
- Учитывай возраст детей при выборе активностей
- Рекомендуй семейные отели и рестораны
- Включай детские развлечения и образовательные места
- Учитывай удобство транспорта с детьми`
	case domain_models.CategoryPets:
		return `СПЕЦИАЛИЗАЦИЯ: Путешествия с питомцами
- Обязательно проверяй pet-friendly политику отелей
- Включай информацию о ветеринарных требованиях
- Рекомендуй места для прогулок с животными
- Учитывай транспортные ограничения для питомцев
- Предупреждай о необходимых документах и прививках`
	case domain_models.CategoryPhoto:
		return `СПЕЦИАЛИЗАЦИЯ: Фотографические путешествия
- Фокусируйся на визуально впечатляющих местах
- Учитывай лучшее время суток для фотографии
- Рекомендуй менее туристические, но красивые места
- Включай информацию о разрешениях на съемку
- Предлагай уникальные ракурсы и локации`
	case domain_models.CategoryBudget:
		return `СПЕЦИАЛИЗАЦИЯ: Бюджетные путешествия
- Приоритет экономии без ущерба для впечатлений
- Рекомендуй бесплатные или недорогие активности
- Включай информацию о дешевом транспорте и жилье
- Предлагай местную еду вместо туристических ресторанов
- Учитывай сезонные скидки и предложения`
	case domain_models.CategoryActive:
		return `СПЕЦИАЛИЗАЦИЯ: Активный отдых
- Фокусируйся на спортивных и приключенческих активностях
- Учитывай уровень физической подготовки
- Рекомендуй необходимое снаряжение
- Включай информацию о безопасности и страховке
- Предлагай разнообразные виды активного отдыха`
	}
	return ""
}

// categoryPromptName is the accusative form used in "Помоги спланировать ...".
func categoryPromptName(c domain_models.TravelCategory) string {
	switch c {
	case domain_models.CategoryFamily:
		return "семейное путешествие"
	case domain_models.CategoryPets:
		return "путешествие с питомцами"
	case domain_models.CategoryPhoto:
		return "фотографическое путешествие"
	case domain_models.CategoryBudget:
		return "бюджетное путешествие"
	case domain_models.CategoryActive:
		return "активный отдых"
	}
	return "путешествие"
}

func (f *PromptFormatter) BuildPrompt(request *domain_models.TravelRequest) []llm.Message {
	system := baseSystemPrompt
	if rules := categoryRules(request.Category); rules != "" {
		system += "\n\n" + rules
	}

	var user strings.Builder
	user.WriteString("Помоги спланировать " + categoryPromptName(request.Category) + ". Вот мои предпочтения:\n\n")
	for _, ans := range request.Answers.All() {
		user.WriteString("• " + ans.AnswerText + "\n")
	}
	user.WriteString("\nПожалуйста, предложи конкретное место для путешествия с подробной информацией.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

func (f *PromptFormatter) BuildAlternativePrompt(request *domain_models.TravelRequest, exclude []string) []llm.Message {
	return withExclusions(f.BuildPrompt(request), exclude)
}

// withExclusions appends the "do not suggest" clause to the last user message,
// or adds a user message carrying it when the last message has another role.
func withExclusions(messages []llm.Message, exclude []string) []llm.Message {
	if len(exclude) == 0 {
		return messages
	}
	clause := "\n\nВАЖНО: НЕ предлагай следующие направления, так как они уже были рассмотрены: " +
		strings.Join(exclude, ", ") +
		". Предложи альтернативное место, которое также подойдет под указанные критерии."

	if n := len(messages); n > 0 && messages[n-1].Role == llm.RoleUser {
		messages[n-1].Content += clause
		return messages
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: clause})
}

type rawRecommendation struct {
	Destination   *string   `json:"destination"`
	Description   *string   `json:"description"`
	Highlights    *[]string `json:"highlights"`
	PracticalInfo *string   `json:"practical_info"`
	EstimatedCost *string   `json:"estimated_cost"`
	Duration      *string   `json:"duration"`
	BestTime      *string   `json:"best_time"`
}

// ParseResponse extracts the greedy span from the first '{' to the last '}'
// and decodes it as JSON. Text with no such span goes through the heuristic
// parser. A span that does not decode, or blank input, yields a placeholder.
//
// The greedy span breaks when prose around the object contains braces.
func (f *PromptFormatter) ParseResponse(raw string) domain_models.TravelRecommendation {
	if strings.TrimSpace(raw) == "" {
		f.log.Warn("empty model response, using placeholder")
		return placeholderRecommendation(raw)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return parseTextResponse(raw)
	}

	var data rawRecommendation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &data); err != nil {
		f.log.Error("failed to parse model response",
			"error", err.Error(),
			"response", truncateRunes(raw, 500),
		)
		return placeholderRecommendation(raw)
	}
	return recommendationFromJSON(data)
}

func recommendationFromJSON(data rawRecommendation) domain_models.TravelRecommendation {
	rec := domain_models.TravelRecommendation{
		Destination:   orDefault(data.Destination, defaultDestination),
		Description:   orDefault(data.Description, defaultDescription),
		PracticalInfo: orDefault(data.PracticalInfo, defaultPracticalInfo),
		Highlights:    []string{},
		EstimatedCost: data.EstimatedCost,
		Duration:      data.Duration,
		BestTime:      data.BestTime,
	}
	if data.Highlights != nil {
		rec.Highlights = append(rec.Highlights, *data.Highlights...)
	}
	return rec
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func placeholderRecommendation(raw string) domain_models.TravelRecommendation {
	description := truncateRunes(raw, placeholderDescriptionLimit)
	if strings.TrimSpace(description) == "" {
		description = defaultDescription
	}
	return domain_models.TravelRecommendation{
		Destination:   placeholderDestination,
		Description:   description,
		Highlights:    []string{placeholderHighlight},
		PracticalInfo: placeholderPracticalInfo,
	}
}

var (
	markdownChars = regexp.MustCompile("[#*_`]")
	bulletPrefix  = regexp.MustCompile(`^[•\-*]\s*`)

	highlightTriggers = []string{"достопримечательности", "highlights", "что посмотреть"}
	practicalTriggers = []string{"практическая", "practical", "как добраться", "виза"}
)

type textSection int

const (
	sectionDescription textSection = iota
	sectionHighlights
	sectionPractical
)

// parseTextResponse is a best-effort reading of free-form model output.
func parseTextResponse(text string) domain_models.TravelRecommendation {
	lines := strings.Split(text, "\n")

	destination := placeholderDestination
	for i, line := range lines {
		if i >= destinationScanLines {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || hasPrefixAny(line, "•", "-", "*", "1.", "2.") {
			continue
		}
		clean := strings.TrimSpace(markdownChars.ReplaceAllString(line, ""))
		if len([]rune(clean)) > 3 {
			destination = clean
			break
		}
	}

	var (
		descriptionLines []string
		highlights       []string
		practical        []string
		section          = sectionDescription
	)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, highlightTriggers):
			section = sectionHighlights
			continue
		case containsAny(lower, practicalTriggers):
			section = sectionPractical
			continue
		}

		bulleted := hasPrefixAny(line, "•", "-", "*")
		switch section {
		case sectionDescription:
			if !bulleted {
				descriptionLines = append(descriptionLines, line)
			}
		case sectionHighlights:
			if bulleted {
				if h := bulletPrefix.ReplaceAllString(line, ""); h != "" {
					highlights = append(highlights, h)
				}
			}
		case sectionPractical:
			practical = append(practical, line)
		}
	}

	description := strings.Join(descriptionLines, " ")
	if description == "" {
		description = strings.TrimSpace(truncateRunes(text, heuristicDescriptionLimit))
	}
	if description == "" {
		description = defaultDescription
	}
	if len(highlights) == 0 {
		highlights = []string{placeholderHighlight}
	}
	practicalInfo := strings.Join(practical, " ")
	if practicalInfo == "" {
		practicalInfo = placeholderPracticalInfo
	}

	return domain_models.TravelRecommendation{
		Destination:   destination,
		Description:   description,
		Highlights:    highlights,
		PracticalInfo: practicalInfo,
	}
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
