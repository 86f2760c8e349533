package room

import (
	"testing"
	"time"
)

func TestJoinAssignsHostToFirstParticipant(t *testing.T) {
	r := newRoom("ABCD1234", 10)

	_, view, isHost, fresh, err := r.join("conn-1", "alice", time.Now())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !fresh {
		t.Fatal("first join should be fresh")
	}
	if !isHost {
		t.Fatal("first joiner should be host")
	}
	if view.Host != "conn-1" {
		t.Fatalf("expected host conn-1, got %q", view.Host)
	}

	_, _, isHost2, _, err := r.join("conn-2", "bob", time.Now())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if isHost2 {
		t.Fatal("second joiner should not be host")
	}
}

func TestJoinRejectsDuplicateNickname(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	if _, _, _, _, err := r.join("conn-1", "alice", time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, _, _, err := r.join("conn-2", "alice", time.Now()); err != ErrNicknameTaken {
		t.Fatalf("expected ErrNicknameTaken, got %v", err)
	}
}

func TestJoinRejectsOverCapacity(t *testing.T) {
	r := newRoom("ABCD1234", 1)
	if _, _, _, _, err := r.join("conn-1", "alice", time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, _, _, err := r.join("conn-2", "bob", time.Now()); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestJoinIsIdempotentForSameConnID(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	if _, _, _, _, err := r.join("conn-1", "alice", time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	p, _, _, fresh, err := r.join("conn-1", "alice", time.Now())
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if fresh {
		t.Fatal("rejoin should not report fresh")
	}
	if p.Nickname != "alice" {
		t.Fatalf("expected rejoin to return existing participant, got %+v", p)
	}
	if r.Size() != 1 {
		t.Fatalf("rejoin should not duplicate the participant, size = %d", r.Size())
	}
}

func TestLeaveTransfersHostToNextInJoinOrder(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())
	r.join("conn-2", "bob", time.Now())
	r.join("conn-3", "carol", time.Now())

	res := r.leave("conn-1")
	if !res.hostChanged || res.newHost != "conn-2" {
		t.Fatalf("expected host to transfer to conn-2, got %+v", res)
	}
}

func TestLeaveClearsScreenShareForDepartingSharer(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())
	r.join("conn-2", "bob", time.Now())
	if _, ok := r.StartScreenShare("conn-1"); !ok {
		t.Fatal("expected StartScreenShare to succeed")
	}

	res := r.leave("conn-1")
	if !res.wasSharing {
		t.Fatal("expected leave result to report the departing sharer")
	}
	if r.screenSharer != "" {
		t.Fatalf("expected screenSharer cleared, got %q", r.screenSharer)
	}
}

func TestStartScreenShareSupersedesPreviousSharer(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())
	r.join("conn-2", "bob", time.Now())

	if prev, ok := r.StartScreenShare("conn-1"); !ok || prev != "" {
		t.Fatalf("expected no previous sharer, got prev=%q ok=%v", prev, ok)
	}
	prev, ok := r.StartScreenShare("conn-2")
	if !ok || prev != "conn-1" {
		t.Fatalf("expected conn-1 to be superseded, got prev=%q ok=%v", prev, ok)
	}
	if r.screenSharer != "conn-2" {
		t.Fatalf("expected conn-2 as sharer, got %q", r.screenSharer)
	}
}

func TestStopScreenShareIsNoOpWhenNotTheCurrentSharer(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())
	r.join("conn-2", "bob", time.Now())

	if r.StopScreenShare("conn-1") {
		t.Fatal("expected StopScreenShare to be a no-op when nobody is sharing")
	}

	if _, ok := r.StartScreenShare("conn-1"); !ok {
		t.Fatal("expected StartScreenShare to succeed")
	}
	if r.StopScreenShare("conn-2") {
		t.Fatal("expected StopScreenShare to be a no-op for a participant who isn't the current sharer")
	}
	if r.screenSharer != "conn-1" {
		t.Fatalf("expected conn-1 to remain the sharer, got %q", r.screenSharer)
	}

	if !r.StopScreenShare("conn-1") {
		t.Fatal("expected StopScreenShare to succeed for the actual current sharer")
	}
	if r.screenSharer != "" {
		t.Fatalf("expected screenSharer cleared, got %q", r.screenSharer)
	}
}

func TestToggleMuteReportsNickname(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())

	nickname, ok := r.ToggleMute("conn-1", true)
	if !ok || nickname != "alice" {
		t.Fatalf("expected (alice, true), got (%q, %v)", nickname, ok)
	}
	if _, ok := r.ToggleMute("conn-missing", true); ok {
		t.Fatal("expected ok=false for unknown connection")
	}
}

func TestAppendChatReturnsCurrentMembership(t *testing.T) {
	r := newRoom("ABCD1234", 10)
	r.join("conn-1", "alice", time.Now())
	r.join("conn-2", "bob", time.Now())

	members := r.AppendChat(ChatRecord{ID: "m1", AuthorConnID: "conn-1", Text: "hi"})
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
}
