package quiz

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-desk/internal/opentdb"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "  plain  text ", want: "plain text"},
		{in: "<p>Hello</p> <br/>world", want: "Hello world"},
		{in: "a<script type=\"x\">evil()\n</script>b", want: "ab"},
		{in: "tabs\tand\nnewlines", want: "tabs and newlines"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeInput(tt.in), "input %q", tt.in)
	}
	assert.Len(t, []rune(SanitizeInput(strings.Repeat("é", 2000))), 1000)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" hARD ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	d, err = ParseDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, Difficulty(""), d)

	_, err = ParseDifficulty("legendary")
	require.ErrorIs(t, err, ErrValidation)
}

func TestLabelMapping(t *testing.T) {
	assert.Equal(t, "A", LabelFor(0))
	assert.Equal(t, "Z", LabelFor(25))
	assert.Equal(t, "", LabelFor(26))
	assert.Equal(t, 1, LabelIndex(" b"))
	assert.Equal(t, -1, LabelIndex("1"))
	assert.Equal(t, -1, LabelIndex("AB"))
	assert.Equal(t, "", NormalizeLetter("  "))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, NormalizeTags([]string{" a ,b", "", "a", "c"}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "ok", username: "alice_01", password: "pass"},
		{name: "dash", username: "a-b", password: "pass"},
		{name: "short username", username: "al", password: "pass", wantErr: true},
		{name: "space", username: "al ice", password: "pass", wantErr: true},
		{name: "long username", username: strings.Repeat("u", 51), password: "pass", wantErr: true},
		{name: "short password", username: "alice", password: "abc", wantErr: true},
		{name: "long password", username: "alice", password: strings.Repeat("p", 101), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGradeBoundaries(t *testing.T) {
	tests := map[string]string{
		"100":   "A",
		"90":    "A",
		"89.99": "B",
		"80":    "B",
		"70":    "C",
		"60":    "D",
		"59.99": "F",
		"0":     "F",
	}
	for pct, want := range tests {
		assert.Equal(t, want, GradeFor(decimal.RequireFromString(pct)), pct)
	}
}

func TestQuizResultPercentage(t *testing.T) {
	assert.Equal(t, "66.67", QuizResult{Score: 2, TotalQuestions: 3}.Percentage().String())
	assert.True(t, QuizResult{}.Percentage().IsZero())
	assert.Equal(t, "C", QuizResult{Score: 7, TotalQuestions: 10}.Grade())
}

func TestInputFromRawShufflesAndLabelsAnswer(t *testing.T) {
	raw := opentdb.RawQuestion{
		Type:             "multiple",
		Difficulty:       "easy",
		Question:         "Pick &quot;four&quot;",
		CorrectAnswer:    "4 &lt; 5",
		IncorrectAnswers: []string{"1", "2", "3"},
	}

	in := InputFromRaw(rand.New(rand.NewSource(3)), raw)
	assert.Equal(t, `Pick "four"`, in.Prompt)
	assert.Equal(t, "Easy", in.Difficulty)
	require.Len(t, in.Options, 4)
	idx := LabelIndex(in.Answer)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "4 < 5", in.Options[idx])
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
	assert.False(t, CheckPassword("", "hunter2"))
}
