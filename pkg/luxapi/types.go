package luxapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Client errors.
var (
	// ErrTransport means the miner could not be reached (refused,
	// unreachable, timed out, connection dropped mid-response).
	ErrTransport = errors.New("control api unreachable")

	// ErrMalformedResponse means the miner answered but the body could
	// not be used.
	ErrMalformedResponse = errors.New("malformed control api response")

	ErrInvalidBaseURL = errors.New("invalid control api base url")
)

// API endpoint paths.
const (
	PathLogin      = "/api/login"
	PathProfileSet = "/api/profileset"
	PathCurtail    = "/api/curtail"
)

// alreadyMarker is the leading classification marker of a 400 response
// that means "already in the requested state" ("Miner is already in ...").
// Invalid-value rejections use a different leading word.
const alreadyMarker = "M"

// ControlAPI is the set of control operations a miner exposes.
type ControlAPI interface {
	Login(ctx context.Context, address string) (LoginResult, error)
	SetProfile(ctx context.Context, token, profile string) (Result, error)
	SetMode(ctx context.Context, token, mode string) (Result, error)
}

// Outcome is the classified result of a change request.
type Outcome uint8

const (
	// OutcomeApplied means the miner accepted the change.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyInState means the miner was already in the target state.
	OutcomeAlreadyInState
	// OutcomeInvalidValue means the target value was rejected.
	OutcomeInvalidValue
	// OutcomeUnauthorized means the token expired or is invalid.
	OutcomeUnauthorized
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeAlreadyInState:
		return "ALREADY"
	case OutcomeInvalidValue:
		return "INVALID"
	case OutcomeUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// Confirmed reports whether the miner is known to be in the target state.
func (o Outcome) Confirmed() bool {
	return o == OutcomeApplied || o == OutcomeAlreadyInState
}

// Classify maps a change response to its Outcome.
func Classify(statusCode int, message string) Outcome {
	switch statusCode {
	case http.StatusUnauthorized:
		return OutcomeUnauthorized
	case http.StatusBadRequest:
		if strings.HasPrefix(message, alreadyMarker) {
			return OutcomeAlreadyInState
		}
		return OutcomeInvalidValue
	default:
		return OutcomeApplied
	}
}

// Result is the response to a change request.
type Result struct {
	StatusCode int
	Message    string
	Outcome    Outcome
}

// LoginResult is the response to a login request.
type LoginResult struct {
	StatusCode int
	Message    string
	Token      string

	// TTL is the token expiry the miner issued. Nil when the miner
	// reported an existing session, which carries no new expiry.
	TTL *time.Time

	// AlreadyLoggedIn is set when the message says the session existed.
	AlreadyLoggedIn bool
}

// OK reports whether the login succeeded.
func (r LoginResult) OK() bool {
	return r.StatusCode == http.StatusOK
}

type loginRequest struct {
	MinerIP string `json:"miner_ip"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	TTL     string `json:"ttl,omitempty"`
}

type profileRequest struct {
	Token   string `json:"token"`
	Profile string `json:"profile"`
}

type modeRequest struct {
	Token string `json:"token"`
	Mode  string `json:"mode"`
}

type messageResponse struct {
	Message string `json:"message"`
}
