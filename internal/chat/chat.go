// Package chat appends messages to a room's log and fans them out to every
// current participant, including the sender — the client is the source of
// truth for its own optimistic UI, but the server's echo is what actually
// lands in the shared transcript.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"meetingd/internal/broadcast"
	"meetingd/internal/protocol"
	"meetingd/internal/room"
)

// Recorder receives an observability hook each time a chat message is
// appended. A nil Recorder is valid and every call is a no-op.
type Recorder interface {
	MessagePosted()
}

// Service appends chat messages and broadcasts them.
type Service struct {
	registry *room.Registry
	sender   broadcast.Sender
	recorder Recorder
}

func NewService(registry *room.Registry, sender broadcast.Sender) *Service {
	return NewServiceWithRecorder(registry, sender, nil)
}

func NewServiceWithRecorder(registry *room.Registry, sender broadcast.Sender, rec Recorder) *Service {
	return &Service{registry: registry, sender: sender, recorder: rec}
}

// Post validates and appends a chat message from connID to the room named
// by code, then fans out the resulting record to the whole room. A message
// with no text and no attached file is dropped silently, matching how a
// client would never construct one.
func (s *Service) Post(code, connID string, in protocol.ChatMessageIn) {
	text := strings.TrimSpace(in.Message)
	if text == "" && in.File == nil {
		return
	}

	rm, ok := s.registry.Lookup(code)
	if !ok || !rm.IsParticipant(connID) {
		return
	}
	nickname, _ := rm.Nickname(connID)

	rec := room.ChatRecord{
		ID:             uuid.NewString(),
		AuthorConnID:   connID,
		AuthorNickname: nickname,
		Text:           text,
		File:           in.File,
		Timestamp:      time.Now(),
	}
	members := rm.AppendChat(rec)
	if s.recorder != nil {
		s.recorder.MessagePosted()
	}

	out := protocol.ChatMessageOut{
		ID:        rec.ID,
		SocketID:  rec.AuthorConnID,
		Nickname:  rec.AuthorNickname,
		Message:   rec.Text,
		File:      rec.File,
		Timestamp: rec.Timestamp,
	}
	broadcast.Fanout(s.sender, members, protocol.EventChatMessage, out)
}
