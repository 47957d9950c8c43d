package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
)

// Prompter reads one line of user input after showing a prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerPrompter reads from the terminal with line editing.
type linerPrompter struct {
	state *liner.State
}

func newLinerPrompter() Prompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &linerPrompter{state: state}
}

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", abort("Aborted.")
	}
	return line, err
}

func (p *linerPrompter) Close() error {
	return p.state.Close()
}

// confirm asks a yes/no question. An empty answer selects defaultYes.
func confirm(p Prompter, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	answer, err := p.Prompt(fmt.Sprintf("\n%s %s: ", question, hint))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// askDelay reads a non-negative number of seconds, re-prompting on bad
// input. Empty means no delay.
func askDelay(p Prompter, out io.Writer) (time.Duration, error) {
	for {
		answer, err := p.Prompt("\nDelay in seconds [0]: ")
		if err != nil {
			return 0, err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			return 0, nil
		}

		secs, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(out, "Error: Please enter a valid number")
			continue
		}
		if secs < 0 {
			fmt.Fprintln(out, "Error: Delay must be 0 or positive")
			continue
		}
		return time.Duration(secs) * time.Second, nil
	}
}

// formatDelay renders d as "1 hour, 2 minutes, 5 seconds", omitting zero
// units.
func formatDelay(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	units := []struct {
		name string
		size int
	}{
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}

	var parts []string
	for _, u := range units {
		n := total / u.size
		total %= u.size
		if n == 0 {
			continue
		}
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
