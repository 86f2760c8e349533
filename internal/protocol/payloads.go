package protocol

import (
	"encoding/json"
	"time"

	"meetingd/internal/model"
)

// ---- inbound (client -> server) ----

type JoinRoomIn struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
}

type OfferIn struct {
	RoomID string          `json:"roomId"`
	Offer  json.RawMessage `json:"offer"`
	To     string          `json:"to"`
}

type AnswerIn struct {
	RoomID string          `json:"roomId"`
	Answer json.RawMessage `json:"answer"`
	To     string          `json:"to"`
}

type ScreenShareStartIn struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ScreenShareStopIn struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type ChatMessageIn struct {
	Message string          `json:"message"`
	File    *model.FileMeta `json:"file,omitempty"`
}

type ToggleMuteIn struct {
	IsMuted bool `json:"isMuted"`
}

type ToggleRaiseHandIn struct {
	IsHandRaised bool `json:"isHandRaised"`
}

type FileUploadStartIn struct {
	ReqID        string `json:"reqId"`
	RoomID       string `json:"roomId"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

type FileUploadCompleteIn struct {
	UploadID string `json:"uploadId"`
}

// ---- outbound (server -> client) ----

type ParticipantOut struct {
	SocketID       string    `json:"socketId"`
	Nickname       string    `json:"nickname"`
	IsMuted        bool      `json:"isMuted"`
	IsVideoEnabled bool      `json:"isVideoEnabled"`
	IsHandRaised   bool      `json:"isHandRaised"`
	JoinedAt       time.Time `json:"joinedAt"`
}

type RoomJoinedOut struct {
	RoomID       string           `json:"roomId"`
	Participants []ParticipantOut `json:"participants"`
	IsHost       bool             `json:"isHost"`
}

type UserJoinedOut struct {
	SocketID       string    `json:"socketId"`
	Nickname       string    `json:"nickname"`
	IsMuted        bool      `json:"isMuted"`
	IsVideoEnabled bool      `json:"isVideoEnabled"`
	IsHandRaised   bool      `json:"isHandRaised"`
	JoinedAt       time.Time `json:"joinedAt"`
}

type UserLeftOut struct {
	SocketID string `json:"socketId"`
	Nickname string `json:"nickname"`
}

type OfferOut struct {
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

type AnswerOut struct {
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

type ScreenShareStartOut struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ScreenShareStopOut struct {
	UserID string `json:"userId"`
}

type ChatMessageOut struct {
	ID        string          `json:"id"`
	SocketID  string          `json:"socketId"`
	Nickname  string          `json:"nickname"`
	Message   string          `json:"message"`
	File      *model.FileMeta `json:"file,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type UserMuteChangedOut struct {
	SocketID string `json:"socketId"`
	IsMuted  bool   `json:"isMuted"`
}

type UserHandRaisedOut struct {
	SocketID     string `json:"socketId"`
	IsHandRaised bool   `json:"isHandRaised"`
	Nickname     string `json:"nickname"`
}

type FileUploadErrorOut struct {
	UploadID string `json:"uploadId"`
	Error    string `json:"error"`
}

type ErrorOut struct {
	Message string `json:"message"`
}

type FileUploadStartAckOut struct {
	ReqID    string `json:"reqId"`
	OK       bool   `json:"ok"`
	UploadID string `json:"uploadId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type FileUploadChunkAckOut struct {
	UploadID string `json:"uploadId"`
	OK       bool   `json:"ok"`
	Received int64  `json:"received,omitempty"`
	Error    string `json:"error,omitempty"`
}

type FileUploadCompleteAckOut struct {
	UploadID string          `json:"uploadId"`
	OK       bool            `json:"ok"`
	File     *model.FileMeta `json:"file,omitempty"`
	Error    string          `json:"error,omitempty"`
}
