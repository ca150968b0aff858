package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/clicker/internal/analytics"
	"github.com/studiowebux/clicker/internal/connection"
	"github.com/studiowebux/clicker/internal/history"
	"github.com/studiowebux/clicker/internal/protocol"
	"github.com/studiowebux/clicker/internal/stresstest"
	"github.com/studiowebux/clicker/internal/toggle"
)

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func isValidFormat(format string) bool {
	switch format {
	case "text", "json", "yaml":
		return true
	}
	return false
}

func getEventColor(kind connection.EventKind) string {
	switch kind {
	case connection.EventOpen:
		return colorGreen
	case connection.EventError, connection.EventClose:
		return colorRed
	default:
		return colorYellow
	}
}

// eventRecord is the json/yaml shape of a lifecycle event
type eventRecord struct {
	Time      string `json:"time" yaml:"time"`
	Event     string `json:"event" yaml:"event"`
	State     string `json:"state" yaml:"state"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	AttemptID string `json:"attemptId,omitempty" yaml:"attemptId,omitempty"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func eventDetail(e connection.Event) string {
	switch e.Kind {
	case connection.EventMessage:
		return protocol.Describe(e.Data)
	case connection.EventError:
		if e.Err != nil {
			return e.Err.Error()
		}
	case connection.EventReconnectScheduled:
		return "in " + e.Delay.String()
	case connection.EventClose:
		if e.Uptime > 0 {
			return "after " + e.Uptime.Round(time.Millisecond).String()
		}
	}
	return ""
}

// formatEvent renders one event as a line (text) or document (json/yaml)
func formatEvent(e connection.Event, format string) (string, error) {
	record := eventRecord{
		Time:      e.At.Format(time.RFC3339),
		Event:     e.Kind.String(),
		State:     e.State.String(),
		Address:   e.Address,
		AttemptID: e.AttemptID,
		Detail:    eventDetail(e),
	}

	switch format {
	case "json":
		data, err := json.Marshal(record)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal([]eventRecord{record})
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s%-20s%s", e.At.Format("15:04:05"), getEventColor(e.Kind), record.Event, colorReset)
		if record.Address != "" {
			b.WriteString(" " + record.Address)
		}
		if record.Detail != "" {
			b.WriteString(" (" + record.Detail + ")")
		}
		b.WriteString("\n")
		return b.String(), nil
	}
}

// formatToggle renders the button state after a toggle
func formatToggle(state toggle.State, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.Marshal(map[string]string{"button": state.String()})
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal([]map[string]string{{"button": state.String()}})
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		color := colorYellow
		if state == toggle.On {
			color = colorGreen
		}
		return fmt.Sprintf("button %s%s%s\n", color, strings.ToUpper(state.String()), colorReset), nil
	}
}

// historyRecord is the json/yaml shape of a recent host
type historyRecord struct {
	URL           string `json:"url" yaml:"url"`
	Name          string `json:"name" yaml:"name"`
	LastConnected string `json:"lastConnected" yaml:"lastConnected"`
}

// WriteHistory prints recent hosts, newest first
func WriteHistory(w io.Writer, entries []history.Entry, format string) error {
	records := make([]historyRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, historyRecord{
			URL:           e.URL,
			Name:          e.Name,
			LastConnected: e.LastConnectedAt().Format(time.RFC3339),
		})
	}

	switch format {
	case "json":
		return writeJSON(w, records)
	case "yaml":
		return yaml.NewEncoder(w).Encode(records)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No recent hosts")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tADDRESS\tLAST CONNECTED")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Name, r.URL, entries[i].LastConnectedAt().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// statsRecord is the json/yaml shape of per-address analytics
type statsRecord struct {
	Address       string  `json:"address" yaml:"address"`
	Attempts      int     `json:"attempts" yaml:"attempts"`
	Opens         int     `json:"opens" yaml:"opens"`
	Closes        int     `json:"closes" yaml:"closes"`
	Errors        int     `json:"errors" yaml:"errors"`
	Reconnects    int     `json:"reconnects" yaml:"reconnects"`
	SuccessRate   float64 `json:"successRate" yaml:"successRate"`
	TotalUptime   string  `json:"totalUptime" yaml:"totalUptime"`
	LongestUptime string  `json:"longestUptime" yaml:"longestUptime"`
	LastSeen      string  `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"`
	LastError     string  `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// WriteStats prints per-address connection analytics
func WriteStats(w io.Writer, stats []analytics.Stats, format string) error {
	records := make([]statsRecord, 0, len(stats))
	for _, s := range stats {
		r := statsRecord{
			Address:       s.Address,
			Attempts:      s.Attempts,
			Opens:         s.Opens,
			Closes:        s.Closes,
			Errors:        s.Errors,
			Reconnects:    s.Reconnects,
			SuccessRate:   s.SuccessRate(),
			TotalUptime:   s.TotalUptime.Round(time.Second).String(),
			LongestUptime: s.LongestUptime.Round(time.Second).String(),
			LastError:     s.LastError,
		}
		if !s.LastSeen.IsZero() {
			r.LastSeen = s.LastSeen.Format(time.RFC3339)
		}
		records = append(records, r)
	}

	switch format {
	case "json":
		return writeJSON(w, records)
	case "yaml":
		return yaml.NewEncoder(w).Encode(records)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No connection analytics recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tATTEMPTS\tOPENS\tERRORS\tRECONNECTS\tSUCCESS\tUPTIME\tLAST SEEN")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.0f%%\t%s\t%s\n",
			r.Address, r.Attempts, r.Opens, r.Errors, r.Reconnects, r.SuccessRate*100, r.TotalUptime, r.LastSeen)
	}
	return tw.Flush()
}

// stressRecord is the json/yaml shape of a stress result
type stressRecord struct {
	ID       int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Address  string  `json:"address,omitempty" yaml:"address,omitempty"`
	Started  string  `json:"started,omitempty" yaml:"started,omitempty"`
	Status   string  `json:"status,omitempty" yaml:"status,omitempty"`
	Sent     int     `json:"sent" yaml:"sent"`
	Acked    int     `json:"acked" yaml:"acked"`
	Rejected int     `json:"rejected" yaml:"rejected"`
	Errors   int     `json:"errors" yaml:"errors"`
	AvgMs    float64 `json:"avgMs" yaml:"avgMs"`
	P50Ms    int64   `json:"p50Ms" yaml:"p50Ms"`
	P95Ms    int64   `json:"p95Ms" yaml:"p95Ms"`
	P99Ms    int64   `json:"p99Ms" yaml:"p99Ms"`
}

// WriteStressStats prints the result of one stress run
func WriteStressStats(w io.Writer, stats stresstest.Stats, format string) error {
	record := stressRecord{
		Sent:     stats.Sent,
		Acked:    stats.Acked,
		Rejected: stats.Rejected,
		Errors:   stats.Errors,
		AvgMs:    stats.AvgMs(),
		P50Ms:    stats.P50(),
		P95Ms:    stats.P95(),
		P99Ms:    stats.P99(),
	}

	switch format {
	case "json":
		return writeJSON(w, record)
	case "yaml":
		return yaml.NewEncoder(w).Encode(record)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}

	color := colorGreen
	if stats.Errors > 0 || stats.Rejected > 0 {
		color = colorYellow
	}
	if stats.Acked == 0 {
		color = colorRed
	}

	fmt.Fprintf(w, "Sent %d, %sacked %d (%.1f%%)%s, rejected %d, errors %d\n",
		stats.Sent, color, stats.Acked, stats.AckRate(), colorReset, stats.Rejected, stats.Errors)
	fmt.Fprintf(w, "Round trip: min %dms, avg %.1fms, p50 %dms, p95 %dms, p99 %dms, max %dms\n",
		stats.Min(), stats.AvgMs(), stats.P50(), stats.P95(), stats.P99(), stats.Max())
	return nil
}

// WriteStressRuns prints stored stress runs, newest first
func WriteStressRuns(w io.Writer, runs []*stresstest.Run, format string) error {
	records := make([]stressRecord, 0, len(runs))
	for _, r := range runs {
		records = append(records, stressRecord{
			ID:       r.ID,
			Address:  r.Address,
			Started:  r.StartedAt.Format(time.RFC3339),
			Status:   r.Status,
			Sent:     r.Sent,
			Acked:    r.Acked,
			Rejected: r.Rejected,
			Errors:   r.Errors,
			AvgMs:    r.AvgMs,
			P50Ms:    r.P50Ms,
			P95Ms:    r.P95Ms,
			P99Ms:    r.P99Ms,
		})
	}

	switch format {
	case "json":
		return writeJSON(w, records)
	case "yaml":
		return yaml.NewEncoder(w).Encode(records)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No stress runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tADDRESS\tSTATUS\tSENT\tACKED\tERRORS\tP50\tP95")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%dms\t%dms\n",
			r.ID, runs[i].StartedAt.Format("2006-01-02 15:04"), r.Address, r.Status, r.Sent, r.Acked, r.Errors, r.P50Ms, r.P95Ms)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
