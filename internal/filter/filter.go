// Package filter narrows and reshapes the JSON reports printed by the
// history, stats and stress commands (--filter and --query).
package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

// ShellTimeout bounds a $(command) query
const ShellTimeout = 30 * time.Second

var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// ErrEmptyReport is returned when there is no JSON report to work on
var ErrEmptyReport = errors.New("empty report")

// Expressions holds the report flags. Filter is a JMESPath expression that
// selects rows, e.g. [?errors > `0`] over the stats report. Query is either
// a JMESPath projection such as [].address or a $(command) that receives
// the filtered report on stdin.
type Expressions struct {
	Filter string
	Query  string
}

// Empty reports whether neither flag was given
func (e Expressions) Empty() bool {
	return e.Filter == "" && e.Query == ""
}

// Validate compiles both expressions so a typo fails before the report is built
func (e Expressions) Validate() error {
	if e.Filter != "" && !IsValidJMESPath(e.Filter) {
		return fmt.Errorf("--filter %q is not a JMESPath expression", e.Filter)
	}
	if e.Query != "" && !IsShellCommand(e.Query) && !IsValidJMESPath(e.Query) {
		return fmt.Errorf("--query %q is neither JMESPath nor $(command)", e.Query)
	}
	return nil
}

// Apply runs the filter and then the query over a JSON report
func (e Expressions) Apply(ctx context.Context, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", ErrEmptyReport
	}

	result := report
	if e.Filter != "" {
		filtered, err := search(result, e.Filter)
		if err != nil {
			return "", fmt.Errorf("--filter: %w", err)
		}
		result = filtered
	}

	if e.Query == "" {
		return result, nil
	}

	if m := shellPattern.FindStringSubmatch(e.Query); len(m) > 1 {
		out, err := runShell(ctx, result, m[1])
		if err != nil {
			return "", fmt.Errorf("--query: %w", err)
		}
		return out, nil
	}

	queried, err := search(result, e.Query)
	if err != nil {
		return "", fmt.Errorf("--query: %w", err)
	}
	return queried, nil
}

func search(report, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(report), &data); err != nil {
		return "", fmt.Errorf("report is not JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", expression, err)
	}
	if result == nil {
		return "null", nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func runShell(ctx context.Context, report, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(report)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command %q failed: %s", command, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsValidJMESPath reports whether expression compiles
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// IsShellCommand reports whether query has the $(command) form
func IsShellCommand(query string) bool {
	return shellPattern.MatchString(query)
}
