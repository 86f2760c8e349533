package protocol

import (
	"bytes"
	"errors"
)

// ErrMalformedChunkFrame is returned by DecodeChunkFrame when a binary
// frame doesn't contain the upload id header.
var ErrMalformedChunkFrame = errors.New("malformed chunk frame")

const chunkFrameSeparator = '\n'

// EncodeChunkFrame builds the binary wire form of a file-upload-chunk
// message: the upload id (a UUID, so it can never contain the separator),
// a newline, then the raw chunk bytes. Binary framing keeps large chunks
// off the JSON/UTF-8 path entirely, per spec.md's "binary allowed for
// chunk payloads".
func EncodeChunkFrame(uploadID string, chunk []byte) []byte {
	out := make([]byte, 0, len(uploadID)+1+len(chunk))
	out = append(out, uploadID...)
	out = append(out, chunkFrameSeparator)
	out = append(out, chunk...)
	return out
}

// DecodeChunkFrame splits a binary frame back into its upload id and chunk
// bytes.
func DecodeChunkFrame(frame []byte) (uploadID string, chunk []byte, err error) {
	idx := bytes.IndexByte(frame, chunkFrameSeparator)
	if idx < 0 {
		return "", nil, ErrMalformedChunkFrame
	}
	return string(frame[:idx]), frame[idx+1:], nil
}
