package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes control events to an slog.Logger at Debug level.
// Useful during development to see every exchange on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.PassID != "" {
		attrs = append(attrs, slog.String("pass_id", event.PassID))
	}
	if event.DeviceAddr != "" {
		attrs = append(attrs, slog.String("device", event.DeviceAddr))
	}

	switch {
	case event.Exchange != nil:
		x := event.Exchange
		attrs = append(attrs,
			slog.String("msg_type", x.Type.String()),
			slog.String("endpoint", x.Endpoint),
		)
		if x.Target != "" {
			attrs = append(attrs, slog.String("target", x.Target))
		}
		if x.Type == MessageTypeResponse {
			attrs = append(attrs,
				slog.Int("status", x.StatusCode),
				slog.String("message", x.Message),
				slog.String("outcome", x.Outcome),
			)
		}
		if x.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *x.Duration))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("field", event.StateChange.Field.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Pass != nil:
		attrs = append(attrs,
			slog.String("phase", event.Pass.Phase.String()),
			slog.String("target", event.Pass.Target),
			slog.String("kind", event.Pass.Kind),
			slog.Int("devices", event.Pass.Devices),
		)
		if event.Pass.Phase == PassFinished {
			attrs = append(attrs, slog.Int("failed", event.Pass.Failed))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "control event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
