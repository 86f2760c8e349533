// Package signaling relays WebRTC offers and answers between two
// participants without ever looking inside the SDP payload, and arbitrates
// which single participant may screen-share at a time. Media itself never
// passes through here or through the server at all.
package signaling

import (
	"meetingd/internal/broadcast"
	"meetingd/internal/protocol"
	"meetingd/internal/room"
)

// Recorder receives an observability hook each time a signaling message is
// relayed. A nil Recorder is valid and every call is a no-op.
type Recorder interface {
	RelaySignal()
}

// Router relays offer/answer pairs and screen-share signaling for a
// registry of rooms, fanning results out through a broadcast.Sender.
type Router struct {
	registry *room.Registry
	sender   broadcast.Sender
	recorder Recorder
}

func NewRouter(registry *room.Registry, sender broadcast.Sender, rec Recorder) *Router {
	return &Router{registry: registry, sender: sender, recorder: rec}
}

// RelayOffer forwards an SDP offer from fromConnID to the "to" participant
// named in the payload. The sender must be a participant of roomCode (the
// recipient is not checked; see relay); the payload itself is never parsed,
// only re-wrapped.
func (r *Router) RelayOffer(roomCode, fromConnID string, in protocol.OfferIn) {
	r.relay(roomCode, fromConnID, in.To, protocol.EventOffer, protocol.OfferOut{
		Offer: in.Offer,
		From:  fromConnID,
	})
}

func (r *Router) RelayAnswer(roomCode, fromConnID string, in protocol.AnswerIn) {
	r.relay(roomCode, fromConnID, in.To, protocol.EventAnswer, protocol.AnswerOut{
		Answer: in.Answer,
		From:   fromConnID,
	})
}

// RelayScreenShareOffer and RelayScreenShareAnswer reuse the camera
// channel's relay semantics but travel over their own event names so a
// client can run camera and screen-share negotiation concurrently without
// the two colliding.
func (r *Router) RelayScreenShareOffer(roomCode, fromConnID string, in protocol.OfferIn) {
	r.relay(roomCode, fromConnID, in.To, protocol.EventScreenShareOffer, protocol.OfferOut{
		Offer: in.Offer,
		From:  fromConnID,
	})
}

func (r *Router) RelayScreenShareAnswer(roomCode, fromConnID string, in protocol.AnswerIn) {
	r.relay(roomCode, fromConnID, in.To, protocol.EventScreenShareAnswer, protocol.AnswerOut{
		Answer: in.Answer,
		From:   fromConnID,
	})
}

// relay only checks that the sender is bound to roomCode. It deliberately
// does not check that toConnID is a current participant: the recipient may
// have just left, and an absent recipient is simply a silent drop at the
// sender layer (broadcast.Sender.Send no-ops on an unknown connection).
func (r *Router) relay(roomCode, fromConnID, toConnID, event string, payload any) {
	rm, ok := r.registry.Lookup(roomCode)
	if !ok || !rm.IsParticipant(fromConnID) {
		return
	}
	r.sender.Send(toConnID, event, payload)
	if r.recorder != nil {
		r.recorder.RelaySignal()
	}
}

// StartScreenShare marks connID as the room's active sharer, notifying
// everyone else. If someone else was already sharing, they're told to stop
// so exactly one sharer is ever active, per the single-sharer invariant.
func (r *Router) StartScreenShare(roomCode, connID string, in protocol.ScreenShareStartIn) {
	rm, ok := r.registry.Lookup(roomCode)
	if !ok || !rm.IsParticipant(connID) {
		return
	}
	previous, ok := rm.StartScreenShare(connID)
	if !ok {
		return
	}
	if previous != "" {
		r.sender.Send(previous, protocol.EventScreenShareStop, protocol.ScreenShareStopOut{UserID: previous})
	}
	broadcast.Fanout(r.sender, rm.ParticipantIDs(), protocol.EventScreenShareStart, protocol.ScreenShareStartOut{
		UserID:   connID,
		UserName: in.UserName,
	}, connID)
}

// StopScreenShare clears connID's sharer flag, if it was set, and notifies
// the room.
func (r *Router) StopScreenShare(roomCode, connID string) {
	rm, ok := r.registry.Lookup(roomCode)
	if !ok || !rm.IsParticipant(connID) {
		return
	}
	if !rm.StopScreenShare(connID) {
		return
	}
	broadcast.Fanout(r.sender, rm.ParticipantIDs(), protocol.EventScreenShareStop, protocol.ScreenShareStopOut{
		UserID: connID,
	}, connID)
}
