// Package commands implements the minersched-log subcommands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/minersched/minersched/pkg/log"
)

// ParseLayerFlag parses a layer name (api, session, fleet).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "api":
		return log.LayerAPI, nil
	case "session":
		return log.LayerSession, nil
	case "fleet":
		return log.LayerFleet, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (valid: api, session, fleet)", s)
	}
}

// ParseDirectionFlag parses a direction name (in, out, local).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "local":
		return log.DirectionLocal, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (valid: in, out, local)", s)
	}
}

// ParseCategoryFlag parses a category name (message, state, pass, error).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "pass":
		return log.CategoryPass, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (valid: message, state, pass, error)", s)
	}
}

// FilterFlags holds the raw filter flag values shared by the subcommands.
type FilterFlags struct {
	Layer     string
	Direction string
	Category  string
	Device    string
	Pass      string
	Since     string
	Until     string
}

// Build converts the flags into a log.Filter.
func (f FilterFlags) Build() (log.Filter, error) {
	var filter log.Filter
	filter.DeviceAddr = f.Device
	filter.PassID = f.Pass

	if f.Layer != "" {
		l, err := ParseLayerFlag(f.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if f.Direction != "" {
		d, err := ParseDirectionFlag(f.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if f.Category != "" {
		c, err := ParseCategoryFlag(f.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if f.Since != "" {
		t, err := time.Parse(time.RFC3339, f.Since)
		if err != nil {
			return filter, fmt.Errorf("invalid --since: %w", err)
		}
		filter.TimeStart = &t
	}
	if f.Until != "" {
		t, err := time.Parse(time.RFC3339, f.Until)
		if err != nil {
			return filter, fmt.Errorf("invalid --until: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}
