package commands

import (
	"fmt"
	"io"

	"github.com/minersched/minersched/pkg/log"
)

// RunView prints every matching event in path.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event as a header line plus indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")

	label := "Unknown"
	switch {
	case event.Exchange != nil:
		label = event.Exchange.Type.String()
	case event.StateChange != nil:
		label = "State"
	case event.Pass != nil:
		label = "Pass"
	case event.Error != nil:
		label = "Error"
	}

	fmt.Fprintf(w, "%s [pass:%s] %-5s %-7s %s", ts, shortID(event.PassID), event.Direction, event.Layer, label)
	if event.DeviceAddr != "" {
		fmt.Fprintf(w, " %s", event.DeviceAddr)
	}
	fmt.Fprintln(w)

	switch {
	case event.Exchange != nil:
		x := event.Exchange
		fmt.Fprintf(w, "  Endpoint: %s\n", x.Endpoint)
		if x.Target != "" {
			fmt.Fprintf(w, "  Target: %s\n", x.Target)
		}
		if x.Type == log.MessageTypeResponse {
			fmt.Fprintf(w, "  Status: %d %s\n", x.StatusCode, x.Outcome)
			if x.Message != "" {
				fmt.Fprintf(w, "  Message: %s\n", x.Message)
			}
			if x.Duration != nil {
				fmt.Fprintf(w, "  Duration: %s\n", *x.Duration)
			}
		}
	case event.StateChange != nil:
		sc := event.StateChange
		fmt.Fprintf(w, "  %s: %s -> %s\n", sc.Field, orDash(sc.OldState), sc.NewState)
		if sc.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
		}
	case event.Pass != nil:
		p := event.Pass
		fmt.Fprintf(w, "  %s %s=%s devices=%d", p.Phase, p.Kind, p.Target, p.Devices)
		if p.Phase == log.PassFinished {
			fmt.Fprintf(w, " failed=%d", p.Failed)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		e := event.Error
		fmt.Fprintf(w, "  Message: %s\n", e.Message)
		if e.Code != nil {
			fmt.Fprintf(w, "  Code: %d\n", *e.Code)
		}
		if e.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", e.Context)
		}
	}
	fmt.Fprintln(w)
}

func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
