package quiz

import (
	"html"
	"math/rand"
	"strings"

	"quiz-desk/internal/opentdb"
)

// InputFromRaw converts an OpenTriviaDB question into an editable input with
// its choices shuffled. The correct answer's label becomes Answer.
func InputFromRaw(rng *rand.Rand, raw opentdb.RawQuestion) QuestionInput {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{text: html.UnescapeString(incorrect)})
	}
	choices = append(choices, choice{text: html.UnescapeString(raw.CorrectAnswer), isCorrect: true})

	rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	answer := ""
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			answer = LabelFor(idx)
		}
	}

	tags := []string{"opentdb"}
	if t := strings.TrimSpace(raw.Type); t != "" {
		tags = append(tags, t)
	}

	return QuestionInput{
		Prompt:     html.UnescapeString(raw.Question),
		Options:    options,
		Answer:     answer,
		Category:   html.UnescapeString(raw.Category),
		Difficulty: mapDifficulty(raw.Difficulty),
		Tags:       tags,
	}
}

func mapDifficulty(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "easy":
		return string(DifficultyEasy)
	case "hard":
		return string(DifficultyHard)
	default:
		return string(DifficultyMedium)
	}
}
