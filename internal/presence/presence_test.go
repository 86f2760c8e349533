package presence

import (
	"testing"

	"meetingd/internal/protocol"
	"meetingd/internal/room"
)

type sentEvent struct {
	connID string
	event  string
}

type fakeSender struct {
	sent []sentEvent
}

func (f *fakeSender) Send(connID, event string, payload any) {
	f.sent = append(f.sent, sentEvent{connID, event})
}

func TestToggleMuteExcludesOrigin(t *testing.T) {
	reg := room.NewRegistry(10)
	code := reg.Mint()
	reg.Join(code, "conn-1", "alice")
	reg.Join(code, "conn-2", "bob")

	sender := &fakeSender{}
	svc := NewService(reg, sender)
	svc.ToggleMute(code, "conn-1", protocol.ToggleMuteIn{IsMuted: true})

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(sender.sent))
	}
	if sender.sent[0].connID != "conn-2" {
		t.Fatalf("expected notification to go to conn-2, got %q", sender.sent[0].connID)
	}
	if sender.sent[0].event != protocol.EventUserMuteChanged {
		t.Fatalf("expected event %q, got %q", protocol.EventUserMuteChanged, sender.sent[0].event)
	}
}

func TestToggleMuteNoOpForUnknownRoom(t *testing.T) {
	reg := room.NewRegistry(10)
	sender := &fakeSender{}
	svc := NewService(reg, sender)
	svc.ToggleMute("NOSUCH01", "conn-1", protocol.ToggleMuteIn{IsMuted: true})

	if len(sender.sent) != 0 {
		t.Fatalf("expected no notifications for unknown room, got %d", len(sender.sent))
	}
}

func TestToggleRaiseHandExcludesOriginAndIncludesNickname(t *testing.T) {
	reg := room.NewRegistry(10)
	code := reg.Mint()
	reg.Join(code, "conn-1", "alice")
	reg.Join(code, "conn-2", "bob")
	reg.Join(code, "conn-3", "carol")

	sender := &fakeSender{}
	svc := NewService(reg, sender)
	svc.ToggleRaiseHand(code, "conn-2", protocol.ToggleRaiseHandIn{IsHandRaised: true})

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sender.sent))
	}
	for _, s := range sender.sent {
		if s.connID == "conn-2" {
			t.Fatal("origin should not receive its own hand-raise notification")
		}
	}
}

func TestToggleRaiseHandNoOpForUnknownConnection(t *testing.T) {
	reg := room.NewRegistry(10)
	code := reg.Mint()
	reg.Join(code, "conn-1", "alice")

	sender := &fakeSender{}
	svc := NewService(reg, sender)
	svc.ToggleRaiseHand(code, "conn-missing", protocol.ToggleRaiseHandIn{IsHandRaised: true})

	if len(sender.sent) != 0 {
		t.Fatalf("expected no notifications for unknown connection, got %d", len(sender.sent))
	}
}
