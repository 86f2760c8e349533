// Package model holds small value types shared across the room, chat and
// upload packages so none of them need to import one another just to talk
// about a file.
package model

import "time"

// FileMeta describes a file that finished a chunked upload and was handed
// back to a client for re-sharing through the chat log.
type FileMeta struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
