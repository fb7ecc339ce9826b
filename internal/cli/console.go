package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// console turns the input stream into a channel of lines so the quiz loop
// can wait on input and the timer together. All reads go through it.
//
// The reader goroutine only reads when a line has been requested, so nothing
// is buffered ahead of a password prompt that reads the terminal directly.
type console struct {
	ctx   context.Context
	want  chan struct{}
	lines chan string
	out   io.Writer

	// pending is set while a requested line has not been received yet.
	pending bool

	terminal bool
	fd       int
}

func newConsole(ctx context.Context, in io.Reader, out io.Writer) *console {
	c := &console{
		ctx:   ctx,
		want:  make(chan struct{}, 1),
		lines: make(chan string),
		out:   out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.terminal = true
		c.fd = int(f.Fd())
	}

	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(in)
		for {
			select {
			case <-c.want:
			case <-ctx.Done():
				return
			}
			if !scanner.Scan() {
				return
			}
			select {
			case c.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

// next requests one line and returns the channel it will arrive on. The
// caller must call received once it has taken a value from the channel.
func (c *console) next() <-chan string {
	if !c.pending {
		select {
		case c.want <- struct{}{}:
		default:
		}
		c.pending = true
	}
	return c.lines
}

func (c *console) received() {
	c.pending = false
}

// readLine returns io.EOF once input is exhausted and ctx.Err() once the
// context is cancelled.
func (c *console) readLine() (string, error) {
	lines := c.next()
	select {
	case <-c.ctx.Done():
		return "", c.ctx.Err()
	case line, ok := <-lines:
		c.received()
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	return c.readLine()
}

// promptPassword reads without echo when input is a terminal. Scripted input
// goes through the line reader like any other prompt.
func (c *console) promptPassword(label string) (string, error) {
	if !c.terminal || c.pending {
		return c.prompt(label)
	}
	if err := c.ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, label)
	secret, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func (c *console) promptYesNo(label string) (bool, error) {
	for {
		line, err := c.prompt(label)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(c.out, "Please answer yes or no.")
		}
	}
}

// promptInt re-asks up to maxAttempts times. An empty line yields def.
func (c *console) promptInt(label string, def int) (int, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		line, err := c.prompt(label)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		value, err := strconv.Atoi(line)
		if err == nil && value > 0 {
			return value, nil
		}
		fmt.Fprintln(c.out, "Please enter a positive number.")
	}
	return 0, errTooManyAttempts
}

var errTooManyAttempts = errors.New("too many invalid attempts")

func parsePositive(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid question id %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one question id is required")
	}
	return ids, nil
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "y", "true", "1":
		return true, nil
	case "off", "no", "n", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", value)
	}
}

func splitCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
