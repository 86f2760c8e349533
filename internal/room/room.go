package room

import (
	"sync"
	"time"

	"meetingd/internal/model"
)

// Participant is one live connection bound to one room. The Room owns
// Participants by value in an ordered map keyed by connection id; nothing
// outside this package holds a pointer into that map across a lock release,
// so callers always work with snapshots.
type Participant struct {
	ConnID        string
	Nickname      string
	Muted         bool
	HandRaised    bool
	ScreenSharing bool
	JoinedAt      time.Time
}

// ChatRecord is one append-only entry in a Room's chat log.
type ChatRecord struct {
	ID             string
	AuthorConnID   string
	AuthorNickname string
	Text           string
	File           *model.FileMeta
	Timestamp      time.Time
}

// Room is the authoritative aggregate for one meeting: its participants (in
// join order), its host, its chat log and the current screen sharer, if
// any. All mutations go through the methods below, which take the room's
// mutex for their whole duration — the single-writer discipline required
// by the concurrency model. None of them perform I/O, so the critical
// section is always short.
type Room struct {
	mu sync.Mutex

	code      string
	createdAt time.Time
	capacity  int

	order        []string // connID, insertion order
	participants map[string]*Participant
	host         string // connID, "" if none

	chat []ChatRecord

	screenSharer string // connID, "" if none
}

func newRoom(code string, capacity int) *Room {
	return &Room{
		code:         code,
		createdAt:    time.Now(),
		capacity:     capacity,
		participants: make(map[string]*Participant),
	}
}

// Code returns the room's canonical uppercase code.
func (r *Room) Code() string {
	return r.code
}

// View is a point-in-time, safe-to-share-outside-the-lock copy of a Room.
type View struct {
	Code         string
	Participants []Participant // insertion order
	Host         string
}

// Snapshot returns the current room view.
func (r *Room) Snapshot() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() View {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.participants[id])
	}
	return View{Code: r.code, Participants: out, Host: r.host}
}

// Size returns the current participant count.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// nicknameTakenLocked reports whether nickname is already used by a
// participant other than excludeConnID.
func (r *Room) nicknameTakenLocked(nickname, excludeConnID string) bool {
	for _, id := range r.order {
		if id == excludeConnID {
			continue
		}
		if r.participants[id].Nickname == nickname {
			return true
		}
	}
	return false
}

// join inserts connID as a participant, or — if connID is already a
// participant of this room (rejoin idempotency) — returns the existing
// view without mutation. Returns the joining participant, the full current
// view (which includes the joiner), whether the joiner is host, and
// whether this call actually admitted a new participant (false on the
// idempotent-rejoin path, so callers don't double-count it).
func (r *Room) join(connID, nickname string, now time.Time) (Participant, View, bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.participants[connID]; ok {
		return *existing, r.snapshotLocked(), r.host == connID, false, nil
	}

	if len(r.order) >= r.capacity {
		return Participant{}, View{}, false, false, ErrRoomFull
	}
	if r.nicknameTakenLocked(nickname, "") {
		return Participant{}, View{}, false, false, ErrNicknameTaken
	}

	p := &Participant{ConnID: connID, Nickname: nickname, JoinedAt: now}
	r.participants[connID] = p
	r.order = append(r.order, connID)
	if r.host == "" {
		r.host = connID
	}

	return *p, r.snapshotLocked(), r.host == connID, true, nil
}

// leaveResult describes the effect of a departure.
type leaveResult struct {
	removed      Participant
	found        bool
	remaining    int
	newHost      string
	hostChanged  bool
	wasSharing   bool
}

func (r *Room) leave(connID string) leaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return leaveResult{}
	}
	removed := *p
	delete(r.participants, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.screenSharer == connID {
		r.screenSharer = ""
	}

	res := leaveResult{removed: removed, found: true, remaining: len(r.order), wasSharing: removed.ScreenSharing}
	if r.host == connID {
		r.host = ""
		if len(r.order) > 0 {
			r.host = r.order[0]
			res.newHost = r.host
			res.hostChanged = true
		}
	}
	return res
}

// ToggleMute sets the Muted flag and reports the participant's current
// nickname. ok is false if connID is not bound here.
func (r *Room) ToggleMute(connID string, muted bool) (nickname string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.participants[connID]
	if !exists {
		return "", false
	}
	p.Muted = muted
	return p.Nickname, true
}

func (r *Room) ToggleHand(connID string, raised bool) (nickname string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.participants[connID]
	if !exists {
		return "", false
	}
	p.HandRaised = raised
	return p.Nickname, true
}

// StartScreenShare marks connID as the sharer and clears anyone else's
// flag. previousSharer is "" if nobody was sharing (or the sharer was
// already connID).
func (r *Room) StartScreenShare(connID string) (previousSharer string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.participants[connID]
	if !exists {
		return "", false
	}
	previous := r.screenSharer
	if previous != "" && previous != connID {
		if prevP, ok := r.participants[previous]; ok {
			prevP.ScreenSharing = false
		}
	} else {
		previous = ""
	}
	p.ScreenSharing = true
	r.screenSharer = connID
	return previous, true
}

// StopScreenShare clears connID's sharer flag if it was actually the
// current sharer. It reports false as a no-op both when connID is unknown
// and when connID is a participant who simply wasn't sharing.
func (r *Room) StopScreenShare(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.participants[connID]
	if !exists || r.screenSharer != connID {
		return false
	}
	p.ScreenSharing = false
	r.screenSharer = ""
	return true
}

// IsParticipant reports whether connID currently belongs to this room.
func (r *Room) IsParticipant(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[connID]
	return ok
}

// Nickname returns the current nickname for connID, if bound.
func (r *Room) Nickname(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connID]
	if !ok {
		return "", false
	}
	return p.Nickname, true
}

// AppendChat appends rec, whose id and timestamp the caller has already
// set, without validating it, and returns the room's membership (join
// order) at the moment of the append. Ordering: callers append
// under their own external serialization (the dispatcher processes one
// connection's events in order, and chat-message from concurrent
// connections may interleave here, which is fine — the room's mutex is the
// only ordering authority the spec requires).
func (r *Room) AppendChat(rec ChatRecord) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = append(r.chat, rec)
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ParticipantIDs returns the current room membership in join order.
func (r *Room) ParticipantIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
