package room

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// DefaultCapacity is the maximum number of participants per room
	// (spec: participant count <= 10).
	DefaultCapacity = 10
)

// Recorder receives observability hooks for room and participant lifecycle
// events. A nil Recorder is valid and every call is a no-op.
type Recorder interface {
	RoomOpened()
	RoomClosed()
	ParticipantJoined()
	ParticipantLeft()
	JoinRejected(reason string)
}

// Registry is the authoritative code -> Room map. It is safe for
// concurrent use from many connections; its own mutex only ever guards map
// membership, never a Room's internal state.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	capacity int
	recorder Recorder
}

// NewRegistry builds an empty registry. capacity <= 0 falls back to
// DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	return NewRegistryWithRecorder(capacity, nil)
}

// NewRegistryWithRecorder is NewRegistry with an explicit observability hook.
func NewRegistryWithRecorder(capacity int, rec Recorder) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{rooms: make(map[string]*Room), capacity: capacity, recorder: rec}
}

func (reg *Registry) record(fn func(Recorder)) {
	if reg.recorder != nil {
		fn(reg.recorder)
	}
}

// Mint creates a fresh, collision-resistant 8-character uppercase
// alphanumeric room code and registers an empty Room under it.
func (reg *Registry) Mint() string {
	reg.mu.Lock()
	var code string
	for {
		code = generateCode()
		if _, exists := reg.rooms[code]; exists {
			continue
		}
		reg.rooms[code] = newRoom(code, reg.capacity)
		break
	}
	reg.mu.Unlock()
	reg.record(Recorder.RoomOpened)
	return code
}

func generateCode() string {
	buf := make([]byte, codeLength)
	_, _ = rand.Read(buf)
	var b strings.Builder
	b.Grow(codeLength)
	for _, v := range buf {
		b.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return b.String()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the Room for code, case-insensitively.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[normalize(code)]
	return r, ok
}

// Exists reports whether code resolves to a live room.
func (reg *Registry) Exists(code string) bool {
	_, ok := reg.Lookup(code)
	return ok
}

// ParticipantCount returns the current member count of code, or 0 if the
// room does not exist.
func (reg *Registry) ParticipantCount(code string) int {
	r, ok := reg.Lookup(code)
	if !ok {
		return 0
	}
	return r.Size()
}

// Join performs an atomic join against the room named by code. On success
// it returns the joining participant's snapshot, the resulting room view
// and whether the joiner is host.
func (reg *Registry) Join(code, connID, nickname string) (Participant, View, bool, error) {
	r, ok := reg.Lookup(code)
	if !ok {
		reg.recordRejection(ErrRoomNotFound)
		return Participant{}, View{}, false, ErrRoomNotFound
	}
	p, v, isHost, fresh, err := r.join(connID, nickname, time.Now())
	if err != nil {
		reg.recordRejection(err)
		return p, v, isHost, err
	}
	if fresh {
		reg.record(Recorder.ParticipantJoined)
	}
	return p, v, isHost, nil
}

func (reg *Registry) recordRejection(err error) {
	if reg.recorder != nil {
		reg.recorder.JoinRejected(err.Error())
	}
}

// LeaveResult is the outward-facing result of Leave, used by the
// connection dispatcher to drive user-left fan-out. NewHost and
// HostChanged report a host transfer caused by the departure.
type LeaveResult struct {
	Found       bool
	Removed     Participant
	Remaining   []string // remaining connIDs, join order, post-departure
	NewHost     string
	HostChanged bool
}

// Leave removes connID from the room named by code. If the room becomes
// empty it is evicted from the registry (its code is no longer
// resolvable).
func (reg *Registry) Leave(code, connID string) LeaveResult {
	r, ok := reg.Lookup(code)
	if !ok {
		return LeaveResult{}
	}
	res := r.leave(connID)
	if !res.found {
		return LeaveResult{}
	}
	reg.record(Recorder.ParticipantLeft)
	if res.remaining == 0 {
		reg.mu.Lock()
		evicted := false
		if cur, exists := reg.rooms[normalize(code)]; exists && cur == r && r.Size() == 0 {
			delete(reg.rooms, normalize(code))
			evicted = true
		}
		reg.mu.Unlock()
		if evicted {
			reg.record(Recorder.RoomClosed)
		}
	}
	return LeaveResult{
		Found:       true,
		Removed:     res.removed,
		Remaining:   r.ParticipantIDs(),
		NewHost:     res.newHost,
		HostChanged: res.hostChanged,
	}
}

// ToggleMute sets connID's muted flag within the room named by code.
func (reg *Registry) ToggleMute(code, connID string, muted bool) (nickname string, ok bool) {
	r, exists := reg.Lookup(code)
	if !exists {
		return "", false
	}
	return r.ToggleMute(connID, muted)
}

// ToggleHand sets connID's raised-hand flag within the room named by code.
func (reg *Registry) ToggleHand(code, connID string, raised bool) (nickname string, ok bool) {
	r, exists := reg.Lookup(code)
	if !exists {
		return "", false
	}
	return r.ToggleHand(connID, raised)
}
