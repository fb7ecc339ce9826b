package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"quiz-desk/internal/config"
	"quiz-desk/internal/opentdb"
	"quiz-desk/internal/quiz"
)

func (r *runner) adminMenu() error {
	fmt.Fprintln(r.out, "Admin panel. Type help for commands.")
	for {
		fmt.Fprintln(r.out)
		line, err := r.con.prompt("admin> ")
		if err != nil {
			return err
		}
		cmd, args := splitCommand(line)
		switch cmd {
		case "":
			continue
		case "list", "ls":
			err = r.adminList(args)
		case "show":
			err = r.withID(args, r.adminShow)
		case "add":
			err = r.adminAdd()
		case "edit":
			err = r.withID(args, r.adminEdit)
		case "delete", "rm":
			err = r.adminDelete(args)
		case "duplicate", "dup":
			err = r.withID(args, r.adminDuplicate)
		case "search":
			err = r.adminSearch(args)
		case "stats":
			err = r.adminStats()
		case "timer":
			err = r.adminTimer(args)
		case "import":
			err = r.adminImport(args)
		case "useradd":
			err = r.adminUserAdd()
		case "passwd":
			err = r.adminPasswd()
		case "userdisable":
			err = r.adminSetActive(args, false)
		case "userenable":
			err = r.adminSetActive(args, true)
		case "back", "exit":
			return nil
		case "logout":
			fmt.Fprintln(r.out, "Logged out.")
			return errLogout
		case "help":
			printAdminHelp(r.out)
		default:
			fmt.Fprintf(r.out, "Unknown command %q. Type help for commands.\n", cmd)
		}
		if err != nil {
			return err
		}
	}
}

func printAdminHelp(out io.Writer) {
	fmt.Fprintln(out, "Admin commands:")
	fmt.Fprintln(out, "  list [page]                  list questions, newest first")
	fmt.Fprintln(out, "  show <id>                    show one question")
	fmt.Fprintln(out, "  add                          add a question")
	fmt.Fprintln(out, "  edit <id>                    edit a question")
	fmt.Fprintln(out, "  delete <id...>               delete questions")
	fmt.Fprintln(out, "  duplicate <id>               copy a question")
	fmt.Fprintln(out, "  search [text]                search prompts and options")
	fmt.Fprintln(out, "  stats                        question and result statistics")
	fmt.Fprintln(out, "  timer [minutes] [show] [auto]  view or change the quiz timer")
	fmt.Fprintln(out, "  import <file> | opentdb [n]  import OpenTriviaDB questions")
	fmt.Fprintln(out, "  useradd                      create an account")
	fmt.Fprintln(out, "  passwd                       set an account's password")
	fmt.Fprintln(out, "  userdisable <username>       block an account from logging in")
	fmt.Fprintln(out, "  userenable <username>        allow a disabled account again")
	fmt.Fprintln(out, "  back | logout")
}

func (r *runner) withID(args []string, fn func(int64) error) error {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "A question id is required.")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(r.out, "Invalid question id %q.\n", args[0])
		return nil
	}
	return fn(id)
}

func (r *runner) adminList(args []string) error {
	page, err := parsePositive(args, 0, 1)
	if err != nil {
		fmt.Fprintf(r.out, "page %v\n", err)
		return nil
	}
	result, err := r.app.Admin.ListQuestions(r.ctx, page, quiz.DefaultPerPage)
	if err != nil {
		r.report(err)
		return nil
	}
	if result.TotalCount == 0 {
		fmt.Fprintln(r.out, "The question bank is empty.")
		return nil
	}
	for _, q := range result.Questions {
		printQuestionSummary(r.out, q)
	}
	fmt.Fprintf(r.out, "Page %d of %d (%d questions)\n", result.Page, max(result.TotalPages, 1), result.TotalCount)
	return nil
}

func (r *runner) adminShow(id int64) error {
	q, err := r.app.Admin.GetQuestion(r.ctx, id)
	if err != nil {
		r.report(err)
		return nil
	}
	printQuestionDetail(r.out, q)
	return nil
}

func (r *runner) adminAdd() error {
	in, err := r.promptQuestion(quiz.QuestionInput{})
	if err != nil {
		return err
	}
	q, err := r.app.Admin.CreateQuestion(r.ctx, in)
	if err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "Question #%d created.\n", q.ID)
	return nil
}

func (r *runner) adminEdit(id int64) error {
	existing, err := r.app.Admin.GetQuestion(r.ctx, id)
	if err != nil {
		r.report(err)
		return nil
	}
	printQuestionDetail(r.out, existing)
	fmt.Fprintln(r.out, "Press Enter to keep a value.")

	in, err := r.promptQuestion(quiz.InputFromQuestion(existing))
	if err != nil {
		return err
	}
	q, err := r.app.Admin.UpdateQuestion(r.ctx, id, in)
	if err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "Question #%d updated.\n", q.ID)
	return nil
}

// promptQuestion fills a QuestionInput interactively. Empty answers keep
// the values already in current.
func (r *runner) promptQuestion(current quiz.QuestionInput) (quiz.QuestionInput, error) {
	in := current

	prompt, err := r.con.prompt(withDefault("Prompt", current.Prompt))
	if err != nil {
		return in, err
	}
	if prompt != "" {
		in.Prompt = prompt
	}

	fmt.Fprintln(r.out, "Options, one per line; an empty line ends the list.")
	var options []string
	for len(options) < 26 {
		option, err := r.con.prompt(fmt.Sprintf("  %s. ", quiz.LabelFor(len(options))))
		if err != nil {
			return in, err
		}
		if option == "" {
			break
		}
		options = append(options, option)
	}
	if len(options) > 0 {
		in.Options = options
	}

	answer, err := r.con.prompt(withDefault("Correct option", current.Answer))
	if err != nil {
		return in, err
	}
	if answer != "" {
		in.Answer = answer
	}

	category, err := r.con.prompt(withDefault("Category", current.Category))
	if err != nil {
		return in, err
	}
	if category != "" {
		in.Category = category
	}

	difficulty, err := r.con.prompt(withDefault("Difficulty (Easy/Medium/Hard)", current.Difficulty))
	if err != nil {
		return in, err
	}
	if difficulty != "" {
		in.Difficulty = difficulty
	}

	tags, err := r.con.prompt(withDefault("Tags (comma separated)", strings.Join(current.Tags, ",")))
	if err != nil {
		return in, err
	}
	if tags != "" {
		in.Tags = quiz.NormalizeTags([]string{tags})
	}
	return in, nil
}

func withDefault(label, current string) string {
	if current == "" {
		return label + ": "
	}
	return fmt.Sprintf("%s [%s]: ", label, current)
}

func (r *runner) adminDelete(args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		fmt.Fprintf(r.out, "%v.\n", err)
		return nil
	}
	ok, err := r.con.promptYesNo(fmt.Sprintf("Delete %d question(s)? [y/n] ", len(ids)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(r.out, "Nothing deleted.")
		return nil
	}

	if len(ids) == 1 {
		if err := r.app.Admin.DeleteQuestion(r.ctx, ids[0]); err != nil {
			r.report(err)
			return nil
		}
		fmt.Fprintf(r.out, "Question #%d deleted.\n", ids[0])
		return nil
	}

	result, err := r.app.Admin.DeleteQuestions(r.ctx, ids)
	if err != nil {
		r.report(err)
	}
	fmt.Fprintf(r.out, "Deleted %d question(s).\n", result.Deleted)
	if len(result.Failed) > 0 {
		failed := make([]string, 0, len(result.Failed))
		for _, id := range result.Failed {
			failed = append(failed, strconv.FormatInt(id, 10))
		}
		fmt.Fprintf(r.out, "Not found: %s\n", strings.Join(failed, ", "))
	}
	return nil
}

func (r *runner) adminDuplicate(id int64) error {
	q, err := r.app.Admin.DuplicateQuestion(r.ctx, id)
	if err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "Question #%d duplicated as #%d.\n", id, q.ID)
	return nil
}

func (r *runner) adminSearch(args []string) error {
	var filter quiz.QuestionFilter
	if len(args) > 0 {
		filter.Text = strings.Join(args, " ")
	} else {
		text, err := r.con.prompt("Text [any]: ")
		if err != nil {
			return err
		}
		category, err := r.con.prompt("Category [any]: ")
		if err != nil {
			return err
		}
		difficulty, err := r.con.prompt("Difficulty [any]: ")
		if err != nil {
			return err
		}
		filter = quiz.QuestionFilter{Text: text, Category: category, Difficulty: quiz.Difficulty(difficulty)}
	}

	found, err := r.app.Admin.SearchQuestions(r.ctx, filter)
	if err != nil {
		r.report(err)
		return nil
	}
	if len(found) == 0 {
		fmt.Fprintln(r.out, "No matching questions.")
		return nil
	}
	for _, q := range found {
		printQuestionSummary(r.out, q)
	}
	fmt.Fprintf(r.out, "%d match(es).\n", len(found))
	return nil
}

func (r *runner) adminStats() error {
	dashboard, err := r.app.Admin.Dashboard(r.ctx)
	if err != nil {
		r.report(err)
		return nil
	}
	stats := dashboard.Questions
	fmt.Fprintf(r.out, "Questions: %d\n", stats.Total)
	fmt.Fprintln(r.out, "By difficulty:")
	for _, d := range quiz.Difficulties {
		fmt.Fprintf(r.out, "  %-8s %d\n", d, stats.ByDifficulty[d])
	}
	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(r.out, "By category:")
		for _, category := range stats.SortedCategories() {
			fmt.Fprintf(r.out, "  %-30s %d\n", category, stats.ByCategory[category])
		}
	}
	results := dashboard.Results
	fmt.Fprintf(r.out, "Quizzes taken: %d\n", results.TotalQuizzes)
	fmt.Fprintf(r.out, "Average score: %s%%\n", results.AverageScore.StringFixed(2))
	fmt.Fprintf(r.out, "Best score:    %s%%\n", results.BestScore.StringFixed(2))
	return nil
}

func (r *runner) adminTimer(args []string) error {
	settings := r.app.TimerSettings()
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Total time: %s, show timer: %t, auto submit: %t\n",
			formatDuration(settings.TotalTime()), settings.ShowTimer, settings.AutoSubmit)
		return nil
	}

	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "Invalid minutes %q.\n", args[0])
		return nil
	}
	settings.TotalTimeSeconds = minutes * 60
	if len(args) > 1 {
		if settings.ShowTimer, err = parseOnOff(args[1]); err != nil {
			fmt.Fprintf(r.out, "show: %v.\n", err)
			return nil
		}
	}
	if len(args) > 2 {
		if settings.AutoSubmit, err = parseOnOff(args[2]); err != nil {
			fmt.Fprintf(r.out, "auto: %v.\n", err)
			return nil
		}
	}

	if err := settings.Validate(); err != nil {
		fmt.Fprintf(r.out, "Minutes must be between %d and %d.\n",
			config.MinTotalTimeSeconds/60, config.MaxTotalTimeSeconds/60)
		return nil
	}
	if err := r.app.SaveTimerSettings(settings); err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintln(r.out, "Timer settings saved.")
	return nil
}

func (r *runner) adminImport(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Usage: import <file> | import opentdb [n]")
		return nil
	}

	var raw []opentdb.RawQuestion
	var err error
	if strings.EqualFold(args[0], "opentdb") {
		amount, perr := parsePositive(args, 1, 10)
		if perr != nil {
			fmt.Fprintf(r.out, "amount %v\n", perr)
			return nil
		}
		fmt.Fprintf(r.out, "Fetching %d question(s) from OpenTriviaDB...\n", amount)
		raw, err = r.app.Importer.FetchQuestions(r.ctx, amount)
	} else {
		raw, err = readQuestionFile(strings.Join(args, " "))
	}
	if err != nil {
		r.report(err)
		return nil
	}

	summary, err := r.app.Admin.ImportQuestions(r.ctx, raw)
	if err != nil {
		r.report(err)
	}
	fmt.Fprintf(r.out, "Imported %d question(s), skipped %d.\n", summary.Imported, summary.Skipped)
	return nil
}

func readQuestionFile(path string) ([]opentdb.RawQuestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return opentdb.DecodeQuestions(f)
}

func (r *runner) adminUserAdd() error {
	username, password, err := r.readCredentials()
	if err != nil {
		return err
	}
	roleValue, err := r.con.prompt("Role (admin/user) [user]: ")
	if err != nil {
		return err
	}
	role, err := quiz.ParseRole(roleValue)
	if err != nil {
		r.report(err)
		return nil
	}
	user, err := r.app.Admin.CreateUser(r.ctx, username, password, role)
	if err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "User %s created with role %s.\n", user.Username, user.Role)
	return nil
}

func (r *runner) adminPasswd() error {
	username, err := r.con.prompt(withDefault("Username", r.user.Username))
	if err != nil {
		return err
	}
	if username == "" {
		username = r.user.Username
	}
	user, err := r.app.Admin.FindUser(r.ctx, username)
	if err != nil {
		r.report(err)
		return nil
	}
	password, err := r.con.promptPassword("New password: ")
	if err != nil {
		return err
	}
	if err := r.app.Admin.ChangePassword(r.ctx, user.ID, password); err != nil {
		r.report(err)
		return nil
	}
	fmt.Fprintf(r.out, "Password for %s changed.\n", user.Username)
	return nil
}

func (r *runner) adminSetActive(args []string, active bool) error {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "A username is required.")
		return nil
	}
	if !active && strings.EqualFold(args[0], r.user.Username) {
		fmt.Fprintln(r.out, "You cannot disable your own account.")
		return nil
	}
	user, err := r.app.Admin.SetUserActive(r.ctx, args[0], active)
	if err != nil {
		r.report(err)
		return nil
	}
	state := "disabled"
	if user.Active {
		state = "enabled"
	}
	fmt.Fprintf(r.out, "User %s %s.\n", user.Username, state)
	return nil
}
