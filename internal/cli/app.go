package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quiz-desk/internal/app"
	"quiz-desk/internal/quiz"
)

const (
	maxAttempts         = 3
	defaultHistoryLimit = 10
)

type Option func(*runner)

// WithTickInterval sets how often the quiz timer is refreshed.
func WithTickInterval(d time.Duration) Option {
	return func(r *runner) {
		if d > 0 {
			r.tickInterval = d
		}
	}
}

type runner struct {
	ctx context.Context
	app *app.App
	con *console
	out io.Writer

	tickInterval time.Duration
	newTicker    func(time.Duration) (<-chan time.Time, func())
	now          func() time.Time

	user quiz.User
}

// Run drives the terminal UI until the user exits, input ends or ctx is
// cancelled. Only cancellation is reported as an error.
func Run(ctx context.Context, a *app.App, in io.Reader, out io.Writer, opts ...Option) error {
	r := &runner{
		ctx:          ctx,
		app:          a,
		con:          newConsole(ctx, in, out),
		out:          out,
		tickInterval: time.Second,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	err := r.loginScreen()
	if errors.Is(err, io.EOF) || errors.Is(err, errExit) {
		return nil
	}
	return err
}

var errExit = errors.New("exit")

func (r *runner) loginScreen() error {
	fmt.Fprintln(r.out, "Welcome to quiz-desk.")
	for {
		fmt.Fprintln(r.out)
		line, err := r.con.prompt("[login | register | exit] > ")
		if err != nil {
			return err
		}
		cmd, _ := splitCommand(line)
		switch cmd {
		case "":
			continue
		case "login", "l":
			if err := r.login(); err != nil {
				return err
			}
		case "register", "r":
			if err := r.register(); err != nil {
				return err
			}
		case "exit", "quit", "q":
			fmt.Fprintln(r.out, "Goodbye.")
			return errExit
		case "help":
			fmt.Fprintln(r.out, "Commands: login, register, exit")
		default:
			fmt.Fprintf(r.out, "Unknown command %q. Type help for commands.\n", cmd)
		}
	}
}

func (r *runner) readCredentials() (string, string, error) {
	username, err := r.con.prompt("Username: ")
	if err != nil {
		return "", "", err
	}
	password, err := r.con.promptPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (r *runner) login() error {
	username, password, err := r.readCredentials()
	if err != nil {
		return err
	}
	user, err := r.app.Auth.Login(r.ctx, username, password)
	if err != nil {
		r.report(err)
		return nil
	}
	r.user = user
	fmt.Fprintf(r.out, "Logged in as %s (%s).\n", user.Username, user.Role)
	if err := r.userMenu(); err != nil && !errors.Is(err, errLogout) {
		return err
	}
	r.user = quiz.User{}
	return nil
}

func (r *runner) register() error {
	username, password, err := r.readCredentials()
	if err != nil {
		return err
	}
	confirm, err := r.con.promptPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		fmt.Fprintln(r.out, "Passwords do not match.")
		return nil
	}
	user, err := r.app.Auth.Register(r.ctx, username, password)
	if err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "Account %s created. You can now log in.\n", user.Username)
	return nil
}

var errLogout = errors.New("logout")

func (r *runner) userMenu() error {
	for {
		fmt.Fprintln(r.out)
		line, err := r.con.prompt(r.user.Username + "> ")
		if err != nil {
			return err
		}
		cmd, args := splitCommand(line)
		switch cmd {
		case "":
			continue
		case "start", "s":
			err = r.startQuiz(args)
		case "categories", "c":
			err = r.showCategories()
		case "history", "h":
			err = r.showHistory(args)
		case "latest":
			err = r.showLatest()
		case "passwd":
			err = r.changeOwnPassword()
		case "admin":
			err = r.enterAdmin()
		case "logout":
			fmt.Fprintln(r.out, "Logged out.")
			return errLogout
		case "help":
			printUserHelp(r.out, r.user.IsAdmin())
		default:
			fmt.Fprintf(r.out, "Unknown command %q. Type help for commands.\n", cmd)
		}
		if err != nil {
			return err
		}
	}
}

// enterAdmin asks for the password again before opening the admin panel.
func (r *runner) enterAdmin() error {
	password, err := r.con.promptPassword("Admin password: ")
	if err != nil {
		return err
	}
	user, err := r.app.Admin.AuthenticateAdmin(r.ctx, r.user.Username, password)
	if err != nil {
		r.report(err)
		return nil
	}
	r.user = user
	return r.adminMenu()
}

func printUserHelp(out io.Writer, admin bool) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  start [count] [category|-] [difficulty|-]")
	fmt.Fprintln(out, "  categories")
	fmt.Fprintln(out, "  history [limit]")
	fmt.Fprintln(out, "  latest")
	fmt.Fprintln(out, "  passwd")
	if admin {
		fmt.Fprintln(out, "  admin")
	}
	fmt.Fprintln(out, "  logout")
}

// startQuiz reads the criteria from args, or prompts for them when none
// are given, then runs the quiz.
func (r *runner) startQuiz(args []string) error {
	criteria := quiz.Criteria{Count: r.app.Config.QuestionsPerQuiz}
	if len(args) > 0 {
		count, err := parsePositive(args, 0, criteria.Count)
		if err != nil {
			fmt.Fprintf(r.out, "count %v\n", err)
			return nil
		}
		criteria.Count = count
		if len(args) > 1 && args[1] != "-" {
			criteria.Category = args[1]
		}
		if len(args) > 2 && args[2] != "-" {
			d, err := quiz.ParseDifficulty(args[2])
			if err != nil {
				r.report(err)
				return nil
			}
			criteria.Difficulty = d
		}
	} else {
		if err := r.promptCriteria(&criteria); err != nil {
			if errors.Is(err, errTooManyAttempts) {
				fmt.Fprintln(r.out, "Quiz not started.")
				return nil
			}
			return err
		}
	}

	session, err := r.app.Quiz.StartSession(r.ctx, r.user.ID, criteria)
	if err != nil {
		r.report(err)
		return nil
	}
	return r.runQuiz(session)
}

func (r *runner) promptCriteria(criteria *quiz.Criteria) error {
	count, err := r.con.promptInt(fmt.Sprintf("Number of questions [%d]: ", criteria.Count), criteria.Count)
	if err != nil {
		return err
	}
	criteria.Count = count

	categories, err := r.app.Quiz.Categories(r.ctx)
	if err != nil {
		r.report(err)
	} else if len(categories) > 0 {
		fmt.Fprintf(r.out, "Categories: %s\n", strings.Join(categories, ", "))
	}
	category, err := r.con.prompt("Category [any]: ")
	if err != nil {
		return err
	}
	criteria.Category = category

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := r.con.prompt("Difficulty (Easy/Medium/Hard) [any]: ")
		if err != nil {
			return err
		}
		d, err := quiz.ParseDifficulty(value)
		if err == nil {
			criteria.Difficulty = d
			return nil
		}
		r.report(err)
	}
	return errTooManyAttempts
}

func (r *runner) showCategories() error {
	categories, err := r.app.Quiz.Categories(r.ctx)
	if err != nil {
		r.report(err)
		return nil
	}
	if len(categories) == 0 {
		fmt.Fprintln(r.out, "No questions available yet.")
		return nil
	}
	for _, category := range categories {
		count, err := r.app.Quiz.AvailableCount(r.ctx, category, "")
		if err != nil {
			r.report(err)
			return nil
		}
		fmt.Fprintf(r.out, "  %-30s %d\n", category, count)
	}
	return nil
}

func (r *runner) showHistory(args []string) error {
	limit, err := parsePositive(args, 0, defaultHistoryLimit)
	if err != nil {
		fmt.Fprintf(r.out, "limit %v\n", err)
		return nil
	}
	results, err := r.app.Quiz.History(r.ctx, r.user.ID, limit)
	if err != nil {
		r.report(err)
		return nil
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "No quizzes taken yet.")
		return nil
	}
	for _, result := range results {
		printResultLine(r.out, result)
	}
	return nil
}

func (r *runner) showLatest() error {
	result, err := r.app.Quiz.LatestResult(r.ctx, r.user.ID)
	if errors.Is(err, quiz.ErrResultNotFound) {
		fmt.Fprintln(r.out, "No quizzes taken yet.")
		return nil
	}
	if err != nil {
		r.report(err)
		return nil
	}
	printResultLine(r.out, result)
	return nil
}

func (r *runner) changeOwnPassword() error {
	current, err := r.con.promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := r.con.promptPassword("New password: ")
	if err != nil {
		return err
	}
	if err := r.app.Auth.ChangePassword(r.ctx, r.user.Username, current, next); err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintln(r.out, "Password changed.")
	return nil
}
