// Package presence handles the small per-participant state toggles — mute
// and raised-hand — that need to reach every other participant but never
// touch signaling or chat.
package presence

import (
	"meetingd/internal/broadcast"
	"meetingd/internal/protocol"
	"meetingd/internal/room"
)

// Service toggles mute/hand state and broadcasts the change.
type Service struct {
	registry *room.Registry
	sender   broadcast.Sender
}

func NewService(registry *room.Registry, sender broadcast.Sender) *Service {
	return &Service{registry: registry, sender: sender}
}

// ToggleMute updates connID's muted flag and notifies the rest of the room.
// The origin connection already knows its own state optimistically, so it's
// excluded from the fan-out.
func (s *Service) ToggleMute(code, connID string, in protocol.ToggleMuteIn) {
	rm, ok := s.registry.Lookup(code)
	if !ok {
		return
	}
	if _, ok := rm.ToggleMute(connID, in.IsMuted); !ok {
		return
	}
	broadcast.Fanout(s.sender, rm.ParticipantIDs(), protocol.EventUserMuteChanged, protocol.UserMuteChangedOut{
		SocketID: connID,
		IsMuted:  in.IsMuted,
	}, connID)
}

// ToggleRaiseHand updates connID's raised-hand flag and notifies the rest of
// the room, including the participant's nickname since a raised-hand
// notification is typically surfaced as a toast naming who raised it.
func (s *Service) ToggleRaiseHand(code, connID string, in protocol.ToggleRaiseHandIn) {
	rm, ok := s.registry.Lookup(code)
	if !ok {
		return
	}
	nickname, ok := rm.ToggleHand(connID, in.IsHandRaised)
	if !ok {
		return
	}
	broadcast.Fanout(s.sender, rm.ParticipantIDs(), protocol.EventUserHandRaised, protocol.UserHandRaisedOut{
		SocketID:     connID,
		IsHandRaised: in.IsHandRaised,
		Nickname:     nickname,
	}, connID)
}
