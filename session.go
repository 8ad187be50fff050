package multipart

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// State is the position of a session in the upload state machine:
// Initiating → Transferring → Completing → {Committed | Aborted}.
type State int

const (
	// StateIdle is the zero state of a session that was never opened
	StateIdle State = iota
	// StateInitiating means the session is being opened
	StateInitiating
	// StateTransferring means the session is open and accepting parts
	StateTransferring
	// StateCompleting means the commit request has been issued
	StateCompleting
	// StateCommitted means the object was assembled; terminal
	StateCommitted
	// StateAborted means the session was discarded; terminal
	StateAborted
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitiating:
		return "initiating"
	case StateTransferring:
		return "transferring"
	case StateCompleting:
		return "completing"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further operation may run on the session.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// Part describes one uploaded part.
type Part struct {
	// Number is the 1-based part number; it matches byte order
	Number int32

	// Range is the inclusive byte range of the payload this part carries
	Range Range

	// ETag is the integrity tag returned by the service, kept verbatim
	ETag string
}

// Size returns the number of payload bytes in the part.
func (p Part) Size() int64 {
	return p.Range.Size()
}

// Status is the terminal result of a session.
type Status string

const (
	// StatusCommitted means the parts were assembled into one object
	StatusCommitted Status = "committed"
	// StatusAborted means the session was discarded
	StatusAborted Status = "aborted"
)

// Outcome is the terminal result of one session. Exactly one is produced per session.
type Outcome struct {
	// Status is committed or aborted
	Status Status

	// Bucket and Key identify the destination object
	Bucket string
	Key    string

	// UploadID is the session id that produced this outcome
	UploadID string

	// Location is the public location of the object; set when committed
	Location string

	// ETag and VersionID describe the assembled object; set when committed
	ETag      string
	VersionID string

	// Parts and Size count the parts and bytes acknowledged by the service
	Parts int
	Size  int64

	// Err is the failure that caused the abort; nil when committed
	Err error

	// AbortErr records a failed abort request. It is never returned to callers
	// of Run, which always see Err instead.
	AbortErr error

	// Duration is the time from initiation to the terminal state
	Duration time.Duration
}

// Committed reports whether the object was assembled.
func (o *Outcome) Committed() bool {
	return o != nil && o.Status == StatusCommitted
}

// Session is a handle on one open multipart upload. It is owned by the
// Orchestrator that opened it and must not be shared between goroutines
// outside of that orchestrator.
type Session struct {
	owner    *Orchestrator
	bucket   string
	key      string
	uploadID string
	started  time.Time

	mu          sync.Mutex
	state       State
	transferred bool
	parts       []Part
	outcome     *Outcome
}

// UploadID returns the session id issued by the service.
func (s *Session) UploadID() string {
	return s.uploadID
}

// Bucket returns the destination bucket.
func (s *Session) Bucket() string {
	return s.bucket
}

// Key returns the destination object key.
func (s *Session) Key() string {
	return s.key
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Parts returns the parts acknowledged so far, ordered by part number.
func (s *Session) Parts() []Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedParts(s.parts)
}

// Outcome returns the terminal outcome, or nil while the session is live.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) recordPart(p Part) {
	s.mu.Lock()
	s.parts = append(s.parts, p)
	s.mu.Unlock()
}

// beginTransfer marks the single transfer a session allows.
func (s *Session) beginTransfer() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTransferring || s.transferred {
		return s.state, false
	}
	s.transferred = true
	return s.state, true
}

// beginComplete moves the session to Completing. A session whose previous
// completion attempt failed may try again.
func (s *Session) beginComplete() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTransferring && s.state != StateCompleting {
		return s.state, false
	}
	s.state = StateCompleting
	return s.state, true
}

// finish records the terminal outcome. It returns false if the session
// already reached a terminal state.
func (s *Session) finish(state State, outcome *Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = state
	s.outcome = outcome
	return true
}

func (s *Session) acknowledged() (int, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var size int64
	for _, p := range s.parts {
		size += p.Size()
	}
	return len(s.parts), size
}

func sortedParts(parts []Part) []Part {
	out := slices.Clone(parts)
	slices.SortFunc(out, func(a, b Part) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}
