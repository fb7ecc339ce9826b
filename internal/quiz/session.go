package quiz

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusTimedOut   Status = "timed_out"
	StatusAbandoned  Status = "abandoned"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusTimedOut, StatusAbandoned:
		return true
	default:
		return false
	}
}

// Criteria selects the questions for a new session. An empty Category or
// Difficulty matches everything. A zero TimeBudget means the configured
// default.
type Criteria struct {
	Category   string
	Difficulty Difficulty
	Count      int
	TimeBudget time.Duration
}

type Score struct {
	Correct   int
	Total     int
	TimeTaken time.Duration
}

func (s Score) Percentage() decimal.Decimal {
	return percentage(s.Correct, s.Total)
}

type SessionOption func(*Session)

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one user's pass over a fixed, ordered question set. It is not
// safe for concurrent use; the caller drives it from a single loop.
type Session struct {
	ID     string
	UserID int64

	status    Status
	questions []Question
	answers   []string
	cursor    int

	budget    time.Duration
	remaining time.Duration
	startedAt time.Time
	timeTaken time.Duration

	now      func() time.Time
	recorded *QuizResult
}

func NewSession(userID int64, opts ...SessionOption) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	s := &Session{
		ID:     id.String(),
		UserID: userID,
		status: StatusNotStarted,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start freezes the question set and starts the clock.
func (s *Session) Start(questions []Question, budget time.Duration) error {
	if s.status != StatusNotStarted {
		return ErrSessionStarted
	}
	if len(questions) == 0 {
		return ErrInsufficientQuestions
	}
	if budget <= 0 {
		return invalid("time_budget", "must be positive")
	}

	s.questions = append([]Question(nil), questions...)
	s.answers = make([]string, len(questions))
	s.cursor = 0
	s.budget = budget
	s.remaining = budget
	s.startedAt = s.now()
	s.status = StatusInProgress
	return nil
}

func (s *Session) Status() Status {
	return s.status
}

func (s *Session) Len() int {
	return len(s.questions)
}

func (s *Session) Budget() time.Duration {
	return s.budget
}

func (s *Session) Remaining() time.Duration {
	return s.remaining
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) Question(index int) (Question, error) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, ErrInvalidIndex
	}
	return s.questions[index], nil
}

// Answer returns the chosen label for index, or "" if unanswered.
func (s *Session) Answer(index int) (string, error) {
	if index < 0 || index >= len(s.answers) {
		return "", ErrInvalidIndex
	}
	return s.answers[index], nil
}

func (s *Session) Answered() int {
	n := 0
	for _, answer := range s.answers {
		if answer != "" {
			n++
		}
	}
	return n
}

// SubmitAnswer records label for the question at index. Once the budget has
// run out on the session clock the session times out instead and
// ErrTimeExpired is returned.
func (s *Session) SubmitAnswer(index int, label string) error {
	if s.status != StatusInProgress {
		return ErrSessionNotActive
	}
	if s.expired() {
		s.timeOut()
		return ErrTimeExpired
	}
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidIndex
	}
	option, ok := s.questions[index].Option(label)
	if !ok {
		return ErrInvalidOption
	}
	s.answers[index] = normalizeLabel(option.Label)
	return nil
}

func (s *Session) ClearAnswer(index int) error {
	if s.status != StatusInProgress {
		return ErrSessionNotActive
	}
	if s.expired() {
		s.timeOut()
		return ErrTimeExpired
	}
	if index < 0 || index >= len(s.answers) {
		return ErrInvalidIndex
	}
	s.answers[index] = ""
	return nil
}

func (s *Session) Current() int {
	return s.cursor
}

func (s *Session) Next() bool {
	if s.cursor+1 >= len(s.questions) {
		return false
	}
	s.cursor++
	return true
}

func (s *Session) Previous() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

func (s *Session) Goto(index int) error {
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidIndex
	}
	s.cursor = index
	return nil
}

// Tick subtracts elapsed from the remaining time. It reports true only on the
// tick that moves the session to TimedOut, which also happens once the
// session clock has passed the budget.
func (s *Session) Tick(elapsed time.Duration) bool {
	if s.status != StatusInProgress || elapsed <= 0 {
		return false
	}
	s.remaining -= elapsed
	if s.remaining > 0 && !s.expired() {
		return false
	}
	s.timeOut()
	return true
}

// Finish ends the session and scores it. A session whose budget has already
// run out ends as TimedOut rather than Completed; check Status afterwards.
func (s *Session) Finish() (Score, error) {
	switch s.status {
	case StatusCompleted, StatusTimedOut:
		return Score{}, ErrAlreadyFinished
	case StatusInProgress:
	default:
		return Score{}, ErrSessionNotActive
	}

	if s.expired() {
		s.timeOut()
		return s.score(), nil
	}
	taken := s.now().Sub(s.startedAt)
	if taken < 0 {
		taken = 0
	}
	s.timeTaken = taken
	s.status = StatusCompleted
	return s.score(), nil
}

func (s *Session) expired() bool {
	return s.now().Sub(s.startedAt) >= s.budget
}

func (s *Session) timeOut() {
	s.remaining = 0
	s.timeTaken = s.budget
	s.status = StatusTimedOut
}

// Abandon discards the session. Nothing is recorded for it.
func (s *Session) Abandon() error {
	if s.status != StatusInProgress {
		return ErrSessionNotActive
	}
	s.status = StatusAbandoned
	return nil
}

func (s *Session) Score() (Score, error) {
	if !s.status.Terminal() {
		return Score{}, ErrSessionNotTerminal
	}
	return s.score(), nil
}

func (s *Session) score() Score {
	correct := 0
	for i, question := range s.questions {
		chosen := s.answers[i]
		if chosen != "" && chosen == normalizeLabel(question.Answer) {
			correct++
		}
	}
	return Score{Correct: correct, Total: len(s.questions), TimeTaken: s.timeTaken}
}

// Recorded returns the persisted result, if RecordResult already ran.
func (s *Session) Recorded() (QuizResult, bool) {
	if s.recorded == nil {
		return QuizResult{}, false
	}
	return *s.recorded, true
}

func (s *Session) questionIDs() []int64 {
	ids := make([]int64, 0, len(s.questions))
	for _, question := range s.questions {
		ids = append(ids, question.ID)
	}
	return ids
}

type ReportItem struct {
	Index      int
	QuestionID int64
	Prompt     string
	Chosen     string
	Correct    string
	Answered   bool
	IsCorrect  bool
}

type Report struct {
	Score              Score
	Status             Status
	Items              []ReportItem
	Percentage         decimal.Decimal
	Grade              string
	AvgTimePerQuestion time.Duration
}

func (s *Session) Report() (Report, error) {
	score, err := s.Score()
	if err != nil {
		return Report{}, err
	}

	items := make([]ReportItem, 0, len(s.questions))
	for i, question := range s.questions {
		chosen := s.answers[i]
		correct := normalizeLabel(question.Answer)
		items = append(items, ReportItem{
			Index:      i,
			QuestionID: question.ID,
			Prompt:     question.Prompt,
			Chosen:     chosen,
			Correct:    correct,
			Answered:   chosen != "",
			IsCorrect:  chosen != "" && chosen == correct,
		})
	}

	pct := score.Percentage()
	var avg time.Duration
	if score.Total > 0 {
		avg = score.TimeTaken / time.Duration(score.Total)
	}
	return Report{
		Score:              score,
		Status:             s.status,
		Items:              items,
		Percentage:         pct,
		Grade:              GradeFor(pct),
		AvgTimePerQuestion: avg,
	}, nil
}
