package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quiz-desk/internal/config"
	"quiz-desk/internal/quiz"
)

// quizRun is the state of one quiz on screen. Confirmations are answered
// through the same loop as everything else so ticks keep arriving while one
// is open.
type quizRun struct {
	r        *runner
	session  *quiz.Session
	settings config.TimerSettings
	warned   map[int]bool
	confirm  *confirmation
}

type confirmation struct {
	prompt string
	yes    func() (bool, error)
	no     func() (bool, error)
}

// runQuiz owns the session until it ends. Input and timer ticks are handled
// on this goroutine only.
func (r *runner) runQuiz(session *quiz.Session) error {
	q := &quizRun{
		r:        r,
		session:  session,
		settings: r.app.TimerSettings(),
		warned:   map[int]bool{},
	}
	ticks, stop := r.newTicker(r.tickInterval)
	defer stop()
	last := r.now()

	fmt.Fprintf(r.out, "\nQuiz started: %d questions, %s on the clock. Type help for commands.\n",
		session.Len(), formatDuration(session.Budget()))
	q.render()

	for {
		select {
		case <-r.ctx.Done():
			r.abandon(session)
			return r.ctx.Err()

		case t := <-ticks:
			elapsed := t.Sub(last)
			last = t
			if session.Tick(elapsed) {
				return q.timedOut()
			}
			q.timeWarnings()

		case line, ok := <-r.con.next():
			r.con.received()
			if !ok {
				r.abandon(session)
				return io.EOF
			}
			done, err := q.handle(strings.TrimSpace(line))
			if err != nil || done {
				return err
			}
		}
	}
}

// timeWarnings prints once when a quarter and again when a tenth of the
// budget remains.
func (q *quizRun) timeWarnings() {
	remaining := q.session.Remaining()
	budget := q.session.Budget()
	for _, pct := range []int{10, 25} {
		if q.warned[pct] {
			continue
		}
		if remaining <= budget*time.Duration(pct)/100 {
			q.warned[pct] = true
			q.warned[25] = true
			fmt.Fprintf(q.r.out, "\nWarning: %s remaining.\n", formatDuration(remaining))
			return
		}
	}
}

func (q *quizRun) timedOut() error {
	q.confirm = nil
	fmt.Fprintln(q.r.out, "\nTime is up!")
	return q.r.finishTimedOut(q.session, q.settings.AutoSubmit)
}

func (q *quizRun) render() {
	q.r.renderQuestion(q.session, q.settings.ShowTimer)
}

// ask shows a yes/no question. The next line of input answers it.
func (q *quizRun) ask(prompt string, yes, no func() (bool, error)) (bool, error) {
	q.confirm = &confirmation{prompt: prompt, yes: yes, no: no}
	fmt.Fprint(q.r.out, prompt)
	return false, nil
}

func (q *quizRun) answer(line string) (bool, error) {
	c := q.confirm
	switch strings.ToLower(line) {
	case "y", "yes":
		q.confirm = nil
		return c.yes()
	case "n", "no":
		q.confirm = nil
		return c.no()
	default:
		fmt.Fprintln(q.r.out, "Please answer yes or no.")
		fmt.Fprint(q.r.out, c.prompt)
		return false, nil
	}
}

// handle reports done once the session has ended and its result (if any)
// has been shown.
func (q *quizRun) handle(line string) (bool, error) {
	if q.confirm != nil {
		return q.answer(line)
	}

	r, session := q.r, q.session
	cmd, args := splitCommand(line)
	current, _ := session.Question(session.Current())

	// A single letter that names an option of the current question is always
	// an answer, even where it collides with n or p.
	if len(args) == 0 && len(cmd) == 1 {
		if _, ok := current.Option(cmd); ok {
			if err := session.SubmitAnswer(session.Current(), cmd); err != nil {
				return q.failed(err)
			}
			if !session.Next() {
				fmt.Fprintln(r.out, "That was the last question. Type finish to submit or prev to review.")
				return false, nil
			}
			q.render()
			return false, nil
		}
	}

	switch cmd {
	case "":
		q.render()
	case "next", "n":
		if !session.Next() {
			fmt.Fprintln(r.out, "Already at the last question.")
			return false, nil
		}
		q.render()
	case "prev", "p":
		if !session.Previous() {
			fmt.Fprintln(r.out, "Already at the first question.")
			return false, nil
		}
		q.render()
	case "goto", "g":
		n, err := parsePositive(args, 0, 0)
		if err != nil || n == 0 || session.Goto(n-1) != nil {
			fmt.Fprintf(r.out, "Question number must be between 1 and %d.\n", session.Len())
			return false, nil
		}
		q.render()
	case "clear":
		if err := session.ClearAnswer(session.Current()); err != nil {
			return q.failed(err)
		}
		fmt.Fprintf(r.out, "Answer for question %d cleared.\n", session.Current()+1)
	case "review", "r":
		r.renderOverview(session)
	case "time", "t":
		fmt.Fprintf(r.out, "%s remaining.\n", formatDuration(session.Remaining()))
	case "finish", "f":
		return q.finish()
	case "quit":
		return q.ask("Quit now? Your answers will not be saved. [y/n] ",
			func() (bool, error) {
				r.abandon(session)
				fmt.Fprintln(r.out, "Quiz abandoned.")
				return true, nil
			},
			func() (bool, error) {
				q.render()
				return false, nil
			},
		)
	case "help":
		printQuizHelp(r.out)
	default:
		labels := make([]string, 0, len(current.Options))
		for _, option := range current.Options {
			labels = append(labels, option.Label)
		}
		fmt.Fprintf(r.out, "Enter one of %s, or type help.\n", strings.Join(labels, "/"))
	}
	return false, nil
}

// failed handles a rejected answer or clear. Running out of time ends the
// quiz; anything else is reported and the quiz goes on.
func (q *quizRun) failed(err error) (bool, error) {
	if errors.Is(err, quiz.ErrTimeExpired) {
		return true, q.timedOut()
	}
	q.r.report(err)
	return false, nil
}

func printQuizHelp(out io.Writer) {
	fmt.Fprintln(out, "Quiz commands:")
	fmt.Fprintln(out, "  <letter>      answer the current question")
	fmt.Fprintln(out, "  next | n      next question")
	fmt.Fprintln(out, "  prev | p      previous question")
	fmt.Fprintln(out, "  goto <n>      jump to question n")
	fmt.Fprintln(out, "  clear         clear the current answer")
	fmt.Fprintln(out, "  review        show which questions are answered")
	fmt.Fprintln(out, "  time          show remaining time")
	fmt.Fprintln(out, "  finish        submit your answers")
	fmt.Fprintln(out, "  quit          abandon the quiz")
}

func (q *quizRun) finish() (bool, error) {
	if unanswered := q.session.Len() - q.session.Answered(); unanswered > 0 {
		return q.ask(fmt.Sprintf("%d question(s) unanswered. Submit anyway? [y/n] ", unanswered),
			q.submit,
			func() (bool, error) { return false, nil },
		)
	}
	return q.submit()
}

// submit finishes the session. If the budget ran out while the user was
// deciding, the session is recorded as timed out.
func (q *quizRun) submit() (bool, error) {
	if _, err := q.session.Finish(); err != nil {
		q.r.report(err)
		return false, nil
	}
	if q.session.Status() == quiz.StatusTimedOut {
		fmt.Fprintln(q.r.out, "\nTime is up!")
	}
	q.r.recordAndSummarize(q.session)
	return true, nil
}

func (r *runner) finishTimedOut(session *quiz.Session, autoSubmit bool) error {
	result, recordErr := r.app.Quiz.RecordResult(r.ctx, session)
	if !autoSubmit {
		if _, err := r.con.prompt("Press Enter to see your results."); err != nil {
			if recordErr != nil {
				r.report(recordErr)
			}
			return err
		}
	}
	if recordErr != nil {
		r.report(recordErr)
	}
	r.summarize(session, result, recordErr == nil)
	return nil
}

func (r *runner) recordAndSummarize(session *quiz.Session) {
	result, err := r.app.Quiz.RecordResult(r.ctx, session)
	if err != nil {
		r.report(err)
	}
	r.summarize(session, result, err == nil)
}

func (r *runner) abandon(session *quiz.Session) {
	if session.Abandon() == nil {
		r.app.Logger.Info("quiz session abandoned", "session_id", session.ID, "user_id", session.UserID)
	}
}

func (r *runner) summarize(session *quiz.Session, result quiz.QuizResult, saved bool) {
	report, err := session.Report()
	if err != nil {
		r.report(err)
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "===== Results =====")
	for _, item := range report.Items {
		chosen := item.Chosen
		if !item.Answered {
			chosen = "-"
		}
		mark := "wrong"
		if item.IsCorrect {
			mark = "correct"
		}
		fmt.Fprintf(r.out, "%2d. %s\n    your answer: %s, correct: %s (%s)\n",
			item.Index+1, item.Prompt, chosen, item.Correct, mark)
	}
	fmt.Fprintf(r.out, "Score: %d/%d (%s%%), grade %s\n",
		report.Score.Correct, report.Score.Total, report.Percentage.StringFixed(2), report.Grade)
	fmt.Fprintf(r.out, "Time taken: %s (avg %s per question)\n",
		formatDuration(report.Score.TimeTaken), formatDuration(report.AvgTimePerQuestion))
	if report.Status == quiz.StatusTimedOut {
		fmt.Fprintln(r.out, "Time ran out; unanswered questions count as wrong.")
	}
	if saved {
		fmt.Fprintf(r.out, "Result #%d saved.\n", result.ID)
	}
}

func (r *runner) renderQuestion(session *quiz.Session, showTimer bool) {
	idx := session.Current()
	question, err := session.Question(idx)
	if err != nil {
		return
	}
	chosen, _ := session.Answer(idx)

	fmt.Fprintln(r.out)
	header := "Question " + strconv.Itoa(idx+1) + "/" + strconv.Itoa(session.Len())
	if showTimer {
		header += "  [" + formatDuration(session.Remaining()) + " left]"
	}
	fmt.Fprintln(r.out, header)
	fmt.Fprintf(r.out, "%s\n\n", question.Prompt)
	for _, option := range question.Options {
		marker := " "
		if option.Label == chosen {
			marker = "*"
		}
		fmt.Fprintf(r.out, " %s %s. %s\n", marker, option.Label, option.Text)
	}
	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, "Answer > ")
}

func (r *runner) renderOverview(session *quiz.Session) {
	var b strings.Builder
	for i := 0; i < session.Len(); i++ {
		answer, _ := session.Answer(i)
		if answer == "" {
			answer = "-"
		}
		fmt.Fprintf(&b, "%d:%s ", i+1, answer)
	}
	fmt.Fprintf(r.out, "%s\n%d of %d answered.\n", strings.TrimSpace(b.String()), session.Answered(), session.Len())
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
