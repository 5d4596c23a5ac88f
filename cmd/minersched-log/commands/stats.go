package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/minersched/minersched/pkg/log"
)

// Stats aggregates a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Passes           int
	FailedDevices    int
	Devices          map[string]*DeviceStats
	Start, End       time.Time
}

// DeviceStats aggregates the events of one device.
type DeviceStats struct {
	Requests int
	Errors   int
	Outcomes map[string]int
}

// CollectStats reads every matching event of path.
func CollectStats(path string, filter log.Filter) (*Stats, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Devices:          make(map[string]*DeviceStats),
	}
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++

	if s.Start.IsZero() || event.Timestamp.Before(s.Start) {
		s.Start = event.Timestamp
	}
	if event.Timestamp.After(s.End) {
		s.End = event.Timestamp
	}

	if p := event.Pass; p != nil && p.Phase == log.PassFinished {
		s.Passes++
		s.FailedDevices += p.Failed
	}

	if event.DeviceAddr == "" {
		return
	}
	d, ok := s.Devices[event.DeviceAddr]
	if !ok {
		d = &DeviceStats{Outcomes: make(map[string]int)}
		s.Devices[event.DeviceAddr] = d
	}
	if x := event.Exchange; x != nil {
		if x.Type == log.MessageTypeRequest {
			d.Requests++
		} else if x.Outcome != "" {
			d.Outcomes[x.Outcome]++
		}
	}
	if event.Error != nil {
		d.Errors++
	}
}

// RunStats prints statistics for path.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := CollectStats(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, s *Stats) {
	fmt.Fprintln(w, "=== Miner Scheduler Event Log ===")
	fmt.Fprintln(w)

	if s.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", s.End.Sub(s.Start).Round(time.Second))
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Passes:       %d (%d device failures)\n", s.Passes, s.FailedDevices)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, l := range []log.Layer{log.LayerAPI, log.LayerSession, log.LayerFleet} {
		if n := s.EventsByLayer[l]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", l.String()+":", n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, c := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryPass, log.CategoryError} {
		if n := s.EventsByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", c.String()+":", n)
		}
	}

	if len(s.Devices) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Devices: %d\n", len(s.Devices))
	addrs := make([]string, 0, len(s.Devices))
	for a := range s.Devices {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	for _, a := range addrs {
		d := s.Devices[a]
		fmt.Fprintf(w, "  %-15s requests=%d errors=%d", a, d.Requests, d.Errors)
		outcomes := make([]string, 0, len(d.Outcomes))
		for o := range d.Outcomes {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		for _, o := range outcomes {
			fmt.Fprintf(w, " %s=%d", o, d.Outcomes[o])
		}
		fmt.Fprintln(w)
	}
}
