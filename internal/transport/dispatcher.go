package transport

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"meetingd/internal/chat"
	"meetingd/internal/presence"
	"meetingd/internal/protocol"
	"meetingd/internal/room"
	"meetingd/internal/signaling"
	"meetingd/internal/upload"
)

// Dispatcher parses events off a Conn and routes them into the domain
// services. One Dispatcher instance is shared by every connection; the
// per-connection state it needs (which room a socket has joined) is kept in
// a connState looked up by connection id.
type Dispatcher struct {
	hub       *Hub
	registry  *room.Registry
	chat      *chat.Service
	presence  *presence.Service
	signaling *signaling.Router
	uploads   *upload.Manager
	recorder  Recorder

	mu     sync.Mutex
	states map[string]*connState
}

type connState struct {
	roomCode string
	nickname string
}

func NewDispatcher(hub *Hub, registry *room.Registry, chatSvc *chat.Service, presenceSvc *presence.Service, sig *signaling.Router, uploads *upload.Manager) *Dispatcher {
	return NewDispatcherWithRecorder(hub, registry, chatSvc, presenceSvc, sig, uploads, nil)
}

// NewDispatcherWithRecorder is NewDispatcher with an explicit observability
// hook, fired whenever an inbound event is dropped for being malformed or
// unrecognized.
func NewDispatcherWithRecorder(hub *Hub, registry *room.Registry, chatSvc *chat.Service, presenceSvc *presence.Service, sig *signaling.Router, uploads *upload.Manager, rec Recorder) *Dispatcher {
	return &Dispatcher{
		hub:       hub,
		registry:  registry,
		chat:      chatSvc,
		presence:  presenceSvc,
		signaling: sig,
		uploads:   uploads,
		recorder:  rec,
		states:    make(map[string]*connState),
	}
}

func (d *Dispatcher) drop(reason string) {
	if d.recorder != nil {
		d.recorder.EventDropped(reason)
	}
}

func (d *Dispatcher) stateFor(connID string) *connState {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[connID]
	if !ok {
		st = &connState{}
		d.states[connID] = st
	}
	return st
}

// HandleText parses a JSON envelope and routes it by event name.
func (d *Dispatcher) HandleText(connID string, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.drop("malformed_envelope")
		d.hub.Send(connID, protocol.EventError, protocol.ErrorOut{Message: "malformed message"})
		return
	}

	switch env.Event {
	case protocol.EventJoinRoom:
		d.handleJoin(connID, env.Data)
	case protocol.EventOffer:
		var in protocol.OfferIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.RelayOffer(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventAnswer:
		var in protocol.AnswerIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.RelayAnswer(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventScreenShareOffer:
		var in protocol.OfferIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.RelayScreenShareOffer(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventScreenShareAnswer:
		var in protocol.AnswerIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.RelayScreenShareAnswer(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventScreenShareStart:
		var in protocol.ScreenShareStartIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.StartScreenShare(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventScreenShareStop:
		var in protocol.ScreenShareStopIn
		if d.unmarshal(env.Data, &in) {
			d.signaling.StopScreenShare(d.stateFor(connID).roomCode, connID)
		}
	case protocol.EventChatMessage:
		var in protocol.ChatMessageIn
		if d.unmarshal(env.Data, &in) {
			d.chat.Post(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventToggleMute:
		var in protocol.ToggleMuteIn
		if d.unmarshal(env.Data, &in) {
			d.presence.ToggleMute(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventToggleRaiseHand:
		var in protocol.ToggleRaiseHandIn
		if d.unmarshal(env.Data, &in) {
			d.presence.ToggleRaiseHand(d.stateFor(connID).roomCode, connID, in)
		}
	case protocol.EventFileUploadStart:
		var in protocol.FileUploadStartIn
		if d.unmarshal(env.Data, &in) {
			d.handleUploadStart(connID, in)
		}
	case protocol.EventFileUploadComplete:
		var in protocol.FileUploadCompleteIn
		if d.unmarshal(env.Data, &in) {
			d.handleUploadComplete(connID, in)
		}
	default:
		d.drop("unknown_event")
		log.Printf("transport: unknown event %q from %s", env.Event, connID)
	}
}

// HandleBinary parses a chunk frame and feeds it to the upload manager.
func (d *Dispatcher) HandleBinary(connID string, frame []byte) {
	uploadID, data, err := protocol.DecodeChunkFrame(frame)
	if err != nil {
		d.drop("malformed_chunk_frame")
		d.hub.Send(connID, protocol.EventError, protocol.ErrorOut{Message: "malformed chunk frame"})
		return
	}
	received, err := d.uploads.Chunk(connID, uploadID, data)
	if err != nil {
		d.hub.Send(connID, protocol.EventFileUploadChunkAck, protocol.FileUploadChunkAckOut{
			UploadID: uploadID,
			OK:       false,
			Error:    err.Error(),
		})
		// Only an IO failure gets the extra broadcast-style notification;
		// a quota rejection is a negative ack and nothing else.
		if errors.Is(err, upload.ErrWriteFailed) {
			d.hub.Send(connID, protocol.EventFileUploadError, protocol.FileUploadErrorOut{
				UploadID: uploadID,
				Error:    err.Error(),
			})
		}
		return
	}
	d.hub.Send(connID, protocol.EventFileUploadChunkAck, protocol.FileUploadChunkAckOut{
		UploadID: uploadID,
		OK:       true,
		Received: received,
	})
}

func (d *Dispatcher) handleJoin(connID string, data json.RawMessage) {
	var in protocol.JoinRoomIn
	if !d.unmarshal(data, &in) {
		return
	}
	_, view, isHost, err := d.registry.Join(in.RoomID, connID, in.Nickname)
	if err != nil {
		d.hub.Send(connID, protocol.EventError, protocol.ErrorOut{Message: room.WireMessage(err)})
		return
	}

	st := d.stateFor(connID)
	st.roomCode = in.RoomID
	st.nickname = in.Nickname

	participants := make([]protocol.ParticipantOut, 0, len(view.Participants))
	for _, p := range view.Participants {
		participants = append(participants, toParticipantOut(p))
	}
	d.hub.Send(connID, protocol.EventRoomJoined, protocol.RoomJoinedOut{
		RoomID:       view.Code,
		Participants: participants,
		IsHost:       isHost,
	})

	joined := findParticipant(view, connID)
	broadcast := protocol.UserJoinedOut{
		SocketID:       connID,
		Nickname:       joined.Nickname,
		IsMuted:        joined.Muted,
		IsVideoEnabled: true,
		IsHandRaised:   joined.HandRaised,
		JoinedAt:       joined.JoinedAt,
	}
	for _, p := range view.Participants {
		if p.ConnID == connID {
			continue
		}
		d.hub.Send(p.ConnID, protocol.EventUserJoined, broadcast)
	}
}

func (d *Dispatcher) handleUploadStart(connID string, in protocol.FileUploadStartIn) {
	if !d.registry.Exists(in.RoomID) {
		d.hub.Send(connID, protocol.EventFileUploadStartAck, protocol.FileUploadStartAckOut{
			ReqID: in.ReqID,
			OK:    false,
			Error: room.WireMessage(room.ErrRoomNotFound),
		})
		return
	}
	sess, err := d.uploads.Start(connID, in.RoomID, in.OriginalName, in.MimeType, in.Size)
	if err != nil {
		d.hub.Send(connID, protocol.EventFileUploadStartAck, protocol.FileUploadStartAckOut{
			ReqID: in.ReqID,
			OK:    false,
			Error: err.Error(),
		})
		return
	}
	d.hub.Send(connID, protocol.EventFileUploadStartAck, protocol.FileUploadStartAckOut{
		ReqID:    in.ReqID,
		OK:       true,
		UploadID: sess.ID,
	})
}

func (d *Dispatcher) handleUploadComplete(connID string, in protocol.FileUploadCompleteIn) {
	meta, err := d.uploads.Complete(connID, in.UploadID)
	if err != nil {
		d.hub.Send(connID, protocol.EventFileUploadCompleteAck, protocol.FileUploadCompleteAckOut{
			UploadID: in.UploadID,
			OK:       false,
			Error:    err.Error(),
		})
		return
	}
	d.hub.Send(connID, protocol.EventFileUploadCompleteAck, protocol.FileUploadCompleteAckOut{
		UploadID: in.UploadID,
		OK:       true,
		File:     meta,
	})
}

// Teardown runs the full disconnect cascade for connID: aborting its
// in-flight uploads, removing it from whatever room it had joined, telling
// the rest of that room it left, and forgetting its dispatcher state. A
// host transfer caused by the departure is not announced to the room.
func (d *Dispatcher) Teardown(connID string) {
	d.uploads.AbortAllForConn(connID)

	d.mu.Lock()
	st, ok := d.states[connID]
	delete(d.states, connID)
	d.mu.Unlock()

	d.hub.Unregister(connID)

	if !ok || st.roomCode == "" {
		return
	}
	res := d.registry.Leave(st.roomCode, connID)
	if !res.Found {
		return
	}
	for _, id := range res.Remaining {
		d.hub.Send(id, protocol.EventUserLeft, protocol.UserLeftOut{
			SocketID: connID,
			Nickname: res.Removed.Nickname,
		})
	}
}

func (d *Dispatcher) unmarshal(data json.RawMessage, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("transport: bad payload: %v", err)
		d.drop("malformed_payload")
		return false
	}
	return true
}

func toParticipantOut(p room.Participant) protocol.ParticipantOut {
	return protocol.ParticipantOut{
		SocketID:       p.ConnID,
		Nickname:       p.Nickname,
		IsMuted:        p.Muted,
		IsVideoEnabled: true,
		IsHandRaised:   p.HandRaised,
		JoinedAt:       p.JoinedAt,
	}
}

func findParticipant(v room.View, connID string) room.Participant {
	for _, p := range v.Participants {
		if p.ConnID == connID {
			return p
		}
	}
	return room.Participant{}
}
