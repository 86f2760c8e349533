package room

import "testing"

func TestMintProducesResolvableUniqueCodes(t *testing.T) {
	reg := NewRegistry(10)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := reg.Mint()
		if len(code) != codeLength {
			t.Fatalf("expected code of length %d, got %q", codeLength, code)
		}
		if seen[code] {
			t.Fatalf("duplicate code minted: %q", code)
		}
		seen[code] = true
		if !reg.Exists(code) {
			t.Fatalf("minted code %q does not resolve", code)
		}
	}
}

func TestJoinUnknownRoomReturnsNotFound(t *testing.T) {
	reg := NewRegistry(10)
	_, _, _, err := reg.Join("NOSUCH01", "conn-1", "alice")
	if err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestLeaveEvictsEmptyRoomFromRegistry(t *testing.T) {
	reg := NewRegistry(10)
	code := reg.Mint()
	if _, _, _, err := reg.Join(code, "conn-1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	res := reg.Leave(code, "conn-1")
	if !res.Found {
		t.Fatal("expected leave to find the participant")
	}
	if reg.Exists(code) {
		t.Fatalf("expected room %q to be evicted once empty", code)
	}
}

func TestLeaveKeepsNonEmptyRoomRegistered(t *testing.T) {
	reg := NewRegistry(10)
	code := reg.Mint()
	reg.Join(code, "conn-1", "alice")
	reg.Join(code, "conn-2", "bob")

	reg.Leave(code, "conn-1")
	if !reg.Exists(code) {
		t.Fatal("room with a remaining participant should stay registered")
	}
	if reg.ParticipantCount(code) != 1 {
		t.Fatalf("expected 1 remaining participant, got %d", reg.ParticipantCount(code))
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry(10)
	code := reg.Mint()
	if _, ok := reg.Lookup(code); !ok {
		t.Fatal("expected exact-case lookup to succeed")
	}
	lower := ""
	for _, c := range code {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower += string(c)
	}
	if _, ok := reg.Lookup(lower); !ok {
		t.Fatalf("expected lowercase lookup of %q to succeed", code)
	}
}

type fakeRecorder struct {
	opened   int
	closed   int
	joined   int
	left     int
	rejected []string
}

func (f *fakeRecorder) RoomOpened()                { f.opened++ }
func (f *fakeRecorder) RoomClosed()                { f.closed++ }
func (f *fakeRecorder) ParticipantJoined()         { f.joined++ }
func (f *fakeRecorder) ParticipantLeft()           { f.left++ }
func (f *fakeRecorder) JoinRejected(reason string) { f.rejected = append(f.rejected, reason) }

func TestRegistryRecordsRoomLifecycle(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistryWithRecorder(10, rec)

	code := reg.Mint()
	if rec.opened != 1 {
		t.Fatalf("expected 1 RoomOpened call, got %d", rec.opened)
	}

	reg.Join(code, "conn-1", "alice")
	reg.Leave(code, "conn-1")
	if rec.closed != 1 {
		t.Fatalf("expected 1 RoomClosed call, got %d", rec.closed)
	}
}

func TestRegistryRecordsParticipantLifecycleAndRejections(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistryWithRecorder(1, rec)

	code := reg.Mint()
	if _, _, _, err := reg.Join(code, "conn-1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if rec.joined != 1 {
		t.Fatalf("expected 1 ParticipantJoined call, got %d", rec.joined)
	}

	// Rejoin by the same connection is idempotent and must not double-count.
	if _, _, _, err := reg.Join(code, "conn-1", "alice"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rec.joined != 1 {
		t.Fatalf("expected rejoin not to increment ParticipantJoined, got %d", rec.joined)
	}

	if _, _, _, err := reg.Join(code, "conn-2", "bob"); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if _, _, _, err := reg.Join("NOSUCH01", "conn-3", "carol"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if len(rec.rejected) != 2 || rec.rejected[0] != ErrRoomFull.Error() || rec.rejected[1] != ErrRoomNotFound.Error() {
		t.Fatalf("expected rejections [room is full, room not found], got %v", rec.rejected)
	}

	reg.Leave(code, "conn-1")
	if rec.left != 1 {
		t.Fatalf("expected 1 ParticipantLeft call, got %d", rec.left)
	}
}
