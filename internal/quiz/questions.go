package quiz

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultCategory = "General"

	minOptions      = 2
	maxOptions      = 26
	maxPromptLen    = 500
	maxOptionLen    = 200
	maxCategoryLen  = 50
	maxSanitizedLen = 1000
	maxSearchLen    = 100
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists the fixed difficulty levels in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts any casing of a known level. An empty string is
// returned as "" so callers can treat it as "no filter".
func ParseDifficulty(value string) (Difficulty, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, d := range Difficulties {
		if strings.EqualFold(value, string(d)) {
			return d, nil
		}
	}
	return "", invalid("difficulty", "must be one of Easy, Medium, Hard")
}

type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type Question struct {
	ID         int64
	Prompt     string
	Options    []Option
	Answer     string
	Category   string
	Difficulty Difficulty
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CorrectOption returns the option whose label matches Answer.
func (q Question) CorrectOption() (Option, bool) {
	return q.Option(q.Answer)
}

func (q Question) Option(label string) (Option, bool) {
	label = normalizeLabel(label)
	for _, option := range q.Options {
		if normalizeLabel(option.Label) == label {
			return option, true
		}
	}
	return Option{}, false
}

// QuestionInput is the admin-facing form for creating or replacing a question.
// Options are given in display order and labelled A, B, C, ... on save.
type QuestionInput struct {
	Prompt     string
	Options    []string
	Answer     string
	Category   string
	Difficulty string
	Tags       []string
}

// build sanitizes and validates the input, returning a question without
// identity or timestamps.
func (in QuestionInput) build() (Question, error) {
	prompt := SanitizeInput(in.Prompt)
	if prompt == "" {
		return Question{}, invalid("prompt", "must not be empty")
	}
	if utf8.RuneCountInString(prompt) > maxPromptLen {
		return Question{}, invalid("prompt", "must be at most %d characters", maxPromptLen)
	}

	if len(in.Options) < minOptions {
		return Question{}, invalid("options", "at least %d options are required", minOptions)
	}
	if len(in.Options) > maxOptions {
		return Question{}, invalid("options", "at most %d options are allowed", maxOptions)
	}

	options := make([]Option, 0, len(in.Options))
	for idx, raw := range in.Options {
		label := LabelFor(idx)
		text := SanitizeInput(raw)
		if text == "" {
			return Question{}, invalid("options", "option %s must not be empty", label)
		}
		if utf8.RuneCountInString(text) > maxOptionLen {
			return Question{}, invalid("options", "option %s must be at most %d characters", label, maxOptionLen)
		}
		options = append(options, Option{Label: label, Text: text})
	}

	answer := normalizeLabel(in.Answer)
	if LabelIndex(answer) < 0 || LabelIndex(answer) >= len(options) {
		return Question{}, invalid("answer", "must be one of A-%s", LabelFor(len(options)-1))
	}

	category := SanitizeInput(in.Category)
	if category == "" {
		category = DefaultCategory
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return Question{}, invalid("category", "must be at most %d characters", maxCategoryLen)
	}

	difficulty, err := ParseDifficulty(in.Difficulty)
	if err != nil {
		return Question{}, err
	}
	if difficulty == "" {
		difficulty = DifficultyMedium
	}

	return Question{
		Prompt:     prompt,
		Options:    options,
		Answer:     answer,
		Category:   category,
		Difficulty: difficulty,
		Tags:       NormalizeTags(in.Tags),
	}, nil
}

// InputFromQuestion converts a stored question back into an editable form.
func InputFromQuestion(q Question) QuestionInput {
	options := make([]string, 0, len(q.Options))
	for _, option := range q.Options {
		options = append(options, option.Text)
	}
	return QuestionInput{
		Prompt:     q.Prompt,
		Options:    options,
		Answer:     q.Answer,
		Category:   q.Category,
		Difficulty: string(q.Difficulty),
		Tags:       append([]string(nil), q.Tags...),
	}
}

func LabelFor(index int) string {
	if index < 0 || index >= maxOptions {
		return ""
	}
	return string(rune('A' + index))
}

// LabelIndex maps "A".."Z" to 0..25 and anything else to -1.
func LabelIndex(label string) int {
	letter := NormalizeLetter(label)
	if letter == "" {
		return -1
	}
	idx := int(letter[0] - 'A')
	if idx < 0 || idx >= maxOptions {
		return -1
	}
	return idx
}

func NormalizeLetter(answer string) string {
	letter := normalizeLabel(answer)
	if len(letter) != 1 {
		return ""
	}
	return letter
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// NormalizeTags trims tags, drops empty ones and splits any value that
// contains commas, since tags are stored comma-separated.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<script.*?</script>`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// SanitizeInput strips markup, collapses whitespace and caps the length.
func SanitizeInput(text string) string {
	if text == "" {
		return ""
	}
	text = scriptPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxSanitizedLen {
		text = string([]rune(text)[:maxSanitizedLen])
	}
	return strings.TrimSpace(text)
}

func sanitizeSearch(text string) string {
	text = SanitizeInput(text)
	if utf8.RuneCountInString(text) > maxSearchLen {
		text = string([]rune(text)[:maxSearchLen])
	}
	return text
}
