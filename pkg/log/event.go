package log

import "time"

// Event represents a control event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// PassID identifies the fleet pass (UUID). Empty outside a pass.
	PassID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// DeviceAddr is the miner the event concerns (empty for pass events).
	DeviceAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Exchange    *ExchangeEvent    `cbor:"10,keyasint,omitempty"` // API layer
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Device field changes
	Pass        *PassEvent        `cbor:"12,keyasint,omitempty"` // Pass lifecycle
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a response from a miner.
	DirectionIn Direction = 0
	// DirectionOut indicates a request to a miner.
	DirectionOut Direction = 1
	// DirectionLocal indicates a controller-internal event.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerAPI is the HTTP control API boundary.
	LayerAPI Layer = 0
	// LayerSession is session acquisition.
	LayerSession Layer = 1
	// LayerFleet is transition application and pass coordination.
	LayerFleet Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerAPI:
		return "API"
	case LayerSession:
		return "SESSION"
	case LayerFleet:
		return "FLEET"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an API request or response.
	CategoryMessage Category = 0
	// CategoryState indicates a confirmed device field change.
	CategoryState Category = 1
	// CategoryPass indicates a fleet pass starting or finishing.
	CategoryPass Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryPass:
		return "PASS"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExchangeEvent captures one side of a control API call.
type ExchangeEvent struct {
	// Type distinguishes request from response.
	Type MessageType `cbor:"1,keyasint"`

	// Endpoint is the API path, e.g. "/api/curtail".
	Endpoint string `cbor:"2,keyasint"`

	// Target is the requested profile or mode (empty for login).
	Target string `cbor:"3,keyasint,omitempty"`

	// For responses: the HTTP status code.
	StatusCode int `cbor:"4,keyasint,omitempty"`

	// For responses: the human-readable message from the miner.
	Message string `cbor:"5,keyasint,omitempty"`

	// For responses: the classified outcome (APPLIED, ALREADY, ...).
	Outcome string `cbor:"6,keyasint,omitempty"`

	// For responses: round-trip time. Stored as nanoseconds.
	Duration *time.Duration `cbor:"7,keyasint,omitempty"`
}

// MessageType distinguishes request from response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a confirmed change of a device field.
type StateChangeEvent struct {
	// Field being changed.
	Field StateField `cbor:"1,keyasint"`

	// OldState is the previous value (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new value.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateField indicates which device field changed.
type StateField uint8

const (
	// StateFieldProfile is the performance profile.
	StateFieldProfile StateField = 0
	// StateFieldMode is the power mode.
	StateFieldMode StateField = 1
	// StateFieldSession is the session token.
	StateFieldSession StateField = 2
)

// String returns the state field name.
func (s StateField) String() string {
	switch s {
	case StateFieldProfile:
		return "PROFILE"
	case StateFieldMode:
		return "MODE"
	case StateFieldSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// PassEvent captures the start or end of a fleet pass.
type PassEvent struct {
	// Phase of the pass.
	Phase PassPhase `cbor:"1,keyasint"`

	// Target value applied by the pass.
	Target string `cbor:"2,keyasint"`

	// Kind is "profile" or "mode".
	Kind string `cbor:"3,keyasint"`

	// Devices is the number of devices in the fleet.
	Devices int `cbor:"4,keyasint"`

	// Failed is the number of devices that did not reach the target
	// (finish events only).
	Failed int `cbor:"5,keyasint,omitempty"`
}

// PassPhase indicates the pass lifecycle point.
type PassPhase uint8

const (
	// PassStarted marks the beginning of a pass.
	PassStarted PassPhase = 0
	// PassFinished marks the end of a pass.
	PassFinished PassPhase = 1
)

// String returns the phase name.
func (p PassPhase) String() string {
	switch p {
	case PassStarted:
		return "STARTED"
	case PassFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the HTTP status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
