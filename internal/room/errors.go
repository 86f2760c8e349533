package room

import "errors"

// Sentinel errors surfaced to callers on Join/Leave/mutation failures, in
// the same errors.Is-checked style as the teacher's storage.ErrUserExists.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNicknameTaken  = errors.New("nickname already taken")
	ErrNotParticipant = errors.New("connection is not a participant of this room")
)

// WireMessage maps a Join failure to the exact text the websocket duplex
// protocol puts on an error envelope. Sentinel errors stay lowercase (they
// may be wrapped with fmt.Errorf elsewhere) — only the wire boundary needs
// the literal casing.
func WireMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrNicknameTaken):
		return "Nickname already taken"
	default:
		return err.Error()
	}
}
