package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/minersched/minersched/pkg/device"
)

// writeStatus prints one row per device.
func writeStatus(w io.Writer, states []device.State) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IP\tPROFILE\tMODE\tTOKEN\tEXPIRES")
	for _, s := range states {
		token := s.SessionToken
		if token == "" {
			token = "-"
		}
		expires := "-"
		if !s.SessionExpiry.IsZero() {
			expires = s.SessionExpiry.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Address, s.Profile, s.Mode, token, expires)
	}
	tw.Flush()
}

// printStatusEvery prints the fleet table every interval until ctx is done.
func printStatusEvery(ctx context.Context, w io.Writer, interval time.Duration, snapshot func() []device.State) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			writeStatus(w, snapshot())
		}
	}
}
