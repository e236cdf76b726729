// Package output renders run progress, summaries and reports for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/reedharmon/pubpulse/internal/config"
	"github.com/reedharmon/pubpulse/internal/engine"
)

const (
	boxHorizontal = "━"
	clearToEnd    = "\033[K"
	ruleWidth     = 56
)

// Console renders live progress and the final run summary.
type Console struct {
	w       io.Writer
	scheme  *ColorScheme
	name    string
	isTTY   bool
	noColor bool
	quiet   bool

	mu       sync.Mutex
	progress bool // a rewriting progress line occupies the current row
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer

	// Name labels the summary header.
	Name string

	// Quiet suppresses progress and shrinks the summary to one line.
	Quiet bool

	// NoColor disables ANSI colors.
	NoColor bool

	// ForceTTY treats the writer as a terminal.
	ForceTTY bool
}

// NewConsole creates a console renderer.
func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	scheme := DefaultColorScheme()
	if cfg.NoColor {
		scheme = NoColorScheme()
	}
	return &Console{
		w:       cfg.Writer,
		scheme:  scheme,
		name:    cfg.Name,
		isTTY:   cfg.ForceTTY || isTerminal(cfg.Writer),
		noColor: cfg.NoColor,
		quiet:   cfg.Quiet,
	}
}

// Progress renders one live status line for the snapshot. On terminals the
// line rewrites in place; otherwise each call emits a plain line.
func (c *Console) Progress(snap engine.Snapshot) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("%s  ops %d/%d  completed %d  failed %d  nodes %d",
		formatDuration(snap.Elapsed),
		snap.Spawned, snap.Limit,
		snap.Completed, snap.Failed,
		len(snap.Nodes),
	)
	if c.isTTY {
		fmt.Fprintf(c.w, "\r%s%s", line, clearToEnd)
		c.progress = true
		return
	}
	fmt.Fprintln(c.w, line)
}

// endProgress terminates a pending in-place progress line. Callers hold mu.
func (c *Console) endProgress() {
	if c.progress {
		fmt.Fprintln(c.w)
		c.progress = false
	}
}

// PrintSummary renders the sealed run result.
func (c *Console) PrintSummary(res *engine.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()

	if c.quiet {
		// In quiet mode, just print the final state
		if res.State == engine.RunStateDone {
			fmt.Fprintln(c.w, c.scheme.Success.Sprint("DONE"))
		} else {
			fmt.Fprintln(c.w, c.scheme.Error.Sprint(strings.ToUpper(res.State.String())))
		}
		return
	}

	rule := c.scheme.Rule.Sprint(strings.Repeat(boxHorizontal, ruleWidth))
	status := fmt.Sprintf("%s %s", c.scheme.Success.Sprint("Completed"), SuccessIcon(c.noColor))
	if res.State != engine.RunStateDone {
		status = fmt.Sprintf("%s %s", c.scheme.Error.Sprint("Incomplete"), ErrorIcon(c.noColor))
	}

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, rule)
	fmt.Fprintf(c.w, "%s - %s\n", c.scheme.Title.Sprint(c.name), status)
	fmt.Fprintln(c.w, rule)
	fmt.Fprintln(c.w)

	fmt.Fprintf(c.w, "Run ID:        %s\n", c.scheme.Muted.Sprint(res.RunID))
	fmt.Fprintf(c.w, "Policy:        %s\n", c.scheme.Value.Sprint(res.Policy))

	s := res.Summary
	if s == nil {
		return
	}

	fmt.Fprintf(c.w, "Duration:      %s\n", c.scheme.Value.Sprint(formatDuration(s.Duration)))
	fmt.Fprintf(c.w, "Operations:    %s%s\n",
		c.scheme.Value.Sprint(formatNumber(int64(s.Operations))), verbBreakdown(s.ByVerb))
	fmt.Fprintf(c.w, "Completed:     %s\n", c.scheme.Success.Sprint(formatNumber(int64(s.Completed))))
	if s.Failed > 0 {
		fmt.Fprintf(c.w, "Failed:        %s\n", c.scheme.Error.Sprint(formatNumber(int64(s.Failed))))
	}
	if s.Pending > 0 {
		fmt.Fprintf(c.w, "Pending:       %s\n", c.scheme.Warn.Sprint(formatNumber(int64(s.Pending))))
	}
	fmt.Fprintf(c.w, "Checks:        %s\n", c.scheme.Value.Sprint(formatNumber(s.Checks)))
	fmt.Fprintf(c.w, "Mean Latency:  %s\n", c.scheme.Value.Sprint(formatDurationShort(s.MeanLatency)))
	fmt.Fprintln(c.w)

	if s.Completed > 0 {
		fmt.Fprintln(c.w, c.scheme.Title.Sprint("Publish Latency Distribution:"))
		fmt.Fprintf(c.w, "  Min:       %s\n", formatDurationShort(s.Latency.Min))
		fmt.Fprintf(c.w, "  P50:       %s\n", formatDurationShort(s.Latency.P50))
		fmt.Fprintf(c.w, "  P90:       %s\n", formatDurationShort(s.Latency.P90))
		fmt.Fprintf(c.w, "  P95:       %s\n", formatDurationShort(s.Latency.P95))
		fmt.Fprintf(c.w, "  P99:       %s\n", formatDurationShort(s.Latency.P99))
		fmt.Fprintf(c.w, "  Max:       %s\n", formatDurationShort(s.Latency.Max))
		fmt.Fprintln(c.w)
	}

	c.printFailures(res)
}

// printFailures lists terminally failed operations. Callers hold mu.
func (c *Console) printFailures(res *engine.Result) {
	var failed []engine.OperationView
	for _, op := range res.Operations {
		if op.State == engine.OpStateFailure {
			failed = append(failed, op)
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(c.w, c.scheme.Title.Sprint("Failures:"))
	for _, op := range failed {
		fmt.Fprintf(c.w, "  %s %s (%s, %s checks): %s\n",
			ErrorIcon(c.noColor), op.ID, op.NodeID,
			formatNumber(op.CheckCount), op.Error)
	}
	fmt.Fprintln(c.w)
}

// PrintValidationErrors renders configuration validation failures.
func (c *Console) PrintValidationErrors(errs *config.ValidationErrors) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()

	fmt.Fprintf(c.w, "%s %s\n", ErrorIcon(c.noColor), c.scheme.Error.Sprint("configuration is invalid"))
	for _, e := range errs.Errors {
		fmt.Fprintf(c.w, "  - %s\n", e.Error())
	}
}

// PrintError renders a fatal run error.
func (c *Console) PrintError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endProgress()

	fmt.Fprintf(c.w, "%s %s\n", ErrorIcon(c.noColor), c.scheme.Error.Sprint(err.Error()))
}

// verbBreakdown renders per-verb counts in a fixed order.
func verbBreakdown(byVerb map[string]int) string {
	if len(byVerb) == 0 {
		return ""
	}
	var parts []string
	for _, v := range []string{"create", "update", "delete"} {
		if n := byVerb[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
