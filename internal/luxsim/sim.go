// Package luxsim simulates the miner control API.
//
// The simulator keeps per-miner profile, mode and session state and answers
// login, profileset and curtail the way the sample API does, including its
// quirks: no ttl on an existing session, and status 400 for both
// "already in that state" and "invalid value". Tests use it behind
// httptest.Server; cmd/luxsim serves it standalone.
package luxsim

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultTTL is how long a simulated session stays valid.
const DefaultTTL = time.Minute

var (
	validProfiles = map[string]bool{"normal": true, "overclock": true, "underclock": true}
	validModes    = map[string]bool{"active": true, "sleep": true}
)

// Miner is the simulated state of one miner.
type Miner struct {
	Profile string
	Mode    string

	token   string
	expires time.Time
}

// Call records one request the simulator handled.
type Call struct {
	Path    string
	MinerIP string
	Value   string
	Status  int
}

// Config configures a Sim.
type Config struct {
	// Miners lists the miner addresses the simulator knows.
	Miners []string

	// TTL is the session lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Sim is an http.Handler implementing the control API.
type Sim struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	miners  map[string]*Miner
	tokens  map[string]string // token -> miner ip
	dropped map[string]bool
	seq     int
	calls   []Call
	mux     *http.ServeMux
}

// New creates a simulator. Miners start in normal profile, active mode.
func New(cfg Config) *Sim {
	s := &Sim{
		ttl:     cfg.TTL,
		now:     cfg.Now,
		miners:  make(map[string]*Miner, len(cfg.Miners)),
		tokens:  make(map[string]string),
		dropped: make(map[string]bool),
		mux:     http.NewServeMux(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, ip := range cfg.Miners {
		s.miners[ip] = &Miner{Profile: "normal", Mode: "active"}
	}

	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/profileset", s.handleProfileSet)
	s.mux.HandleFunc("POST /api/curtail", s.handleCurtail)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Sim) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Miner returns a copy of the simulated state of ip.
func (s *Sim) Miner(ip string) (Miner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.miners[ip]
	if !ok {
		return Miner{}, false
	}
	return Miner{Profile: m.Profile, Mode: m.Mode}, true
}

// SetState forces the simulated profile and mode of ip.
func (s *Sim) SetState(ip, profile, mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.miners[ip]; ok {
		m.Profile = profile
		m.Mode = mode
	}
}

// Expire invalidates the current session of ip.
func (s *Sim) Expire(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.miners[ip]; ok {
		m.expires = time.Time{}
	}
}

// Drop makes every request concerning ip fail at the transport level:
// the connection is closed without a response.
func (s *Sim) Drop(ip string, drop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped[ip] = drop
}

// Calls returns the requests handled so far.
func (s *Sim) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns how many requests hit path.
func (s *Sim) CallsTo(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

func (s *Sim) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MinerIP string `json:"miner_ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body."})
		return
	}

	s.mu.Lock()
	if s.dropped[req.MinerIP] {
		s.mu.Unlock()
		drop(w)
		return
	}
	m, ok := s.miners[req.MinerIP]
	if !ok {
		s.record(r.URL.Path, req.MinerIP, "", http.StatusNotFound)
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Unknown miner."})
		return
	}

	now := s.now()
	if m.token != "" && now.Before(m.expires) {
		token := m.token
		s.record(r.URL.Path, req.MinerIP, "", http.StatusOK)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Miner already logged in.",
			"token":   token,
		})
		return
	}

	if m.token != "" {
		delete(s.tokens, m.token)
	}
	s.seq++
	m.token = fmt.Sprintf("%s_token_%d", req.MinerIP, s.seq)
	m.expires = now.Add(s.ttl)
	s.tokens[m.token] = req.MinerIP
	token, expires := m.token, m.expires
	s.record(r.URL.Path, req.MinerIP, "", http.StatusOK)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Miner logged in.",
		"token":   token,
		"ttl":     expires.UTC().Format(http.TimeFormat),
	})
}

func (s *Sim) handleProfileSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token"`
		Profile string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body."})
		return
	}
	s.change(w, r.URL.Path, req.Token, req.Profile, validProfiles, "Invalid performance profile.",
		func(m *Miner) *string { return &m.Profile })
}

func (s *Sim) handleCurtail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Mode  string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body."})
		return
	}
	s.change(w, r.URL.Path, req.Token, req.Mode, validModes, "Invalid power mode.",
		func(m *Miner) *string { return &m.Mode })
}

func (s *Sim) change(w http.ResponseWriter, path, token, value string, valid map[string]bool, invalidMsg string, field func(*Miner) *string) {
	s.mu.Lock()

	ip, ok := s.tokens[token]
	if ok && s.dropped[ip] {
		s.mu.Unlock()
		drop(w)
		return
	}
	var m *Miner
	if ok {
		m = s.miners[ip]
	}
	if m == nil || m.token != token || !s.now().Before(m.expires) {
		s.record(path, ip, value, http.StatusUnauthorized)
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired or invalid."})
		return
	}

	if !valid[value] {
		s.record(path, ip, value, http.StatusBadRequest)
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": invalidMsg})
		return
	}

	current := field(m)
	if *current == value {
		s.record(path, ip, value, http.StatusBadRequest)
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Miner is already in " + value + "."})
		return
	}

	*current = value
	s.record(path, ip, value, http.StatusOK)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Miner set to " + value + "."})
}

// record appends a call. Caller holds s.mu.
func (s *Sim) record(path, ip, value string, status int) {
	s.calls = append(s.calls, Call{Path: path, MinerIP: ip, Value: value, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// drop closes the client connection without writing a response.
func drop(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	conn.Close()
}
