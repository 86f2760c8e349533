// Package protocol defines the wire shape of the duplex event channel: a
// named-event JSON envelope for every client<->server message in spec.md
// section 6, plus the binary framing used for upload chunks.
package protocol

import "encoding/json"

// Envelope is the outer shape every text frame on the duplex socket wears:
// {"event": "chat-message", "data": {...}}. Binary frames (chunk uploads)
// bypass the envelope entirely; see DecodeChunkFrame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server event names.
const (
	EventJoinRoom           = "join-room"
	EventOffer              = "offer"
	EventAnswer             = "answer"
	EventScreenShareOffer   = "screen-share-offer"
	EventScreenShareAnswer  = "screen-share-answer"
	EventScreenShareStart   = "screen-share-start"
	EventScreenShareStop    = "screen-share-stop"
	EventChatMessage        = "chat-message"
	EventToggleMute         = "toggle-mute"
	EventToggleRaiseHand    = "toggle-raise-hand"
	EventFileUploadStart    = "file-upload-start"
	EventFileUploadComplete = "file-upload-complete"
)

// Server -> client event names.
const (
	EventRoomJoined            = "room-joined"
	EventUserJoined            = "user-joined"
	EventUserLeft              = "user-left"
	EventUserMuteChanged       = "user-mute-changed"
	EventUserHandRaised        = "user-hand-raised"
	EventFileUploadError       = "file-upload-error"
	EventError                 = "error"
	EventFileUploadStartAck    = "file-upload-start-ack"
	EventFileUploadChunkAck    = "file-upload-chunk-ack"
	EventFileUploadCompleteAck = "file-upload-complete-ack"
)

// Encode marshals an event name and payload into an Envelope's wire bytes.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
