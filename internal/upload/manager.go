// Package upload implements the chunked upload subsystem: ingesting
// untrusted binary chunks over the duplex transport, reassembling them to a
// content-addressed-by-random-suffix file on local storage, and returning
// FileMeta once the client finalizes the transfer.
package upload

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"meetingd/internal/model"
)

// Recorder receives observability hooks from the manager. Implementations
// must be cheap and non-blocking (the production one just increments
// prometheus instruments); a nil Recorder is valid and every call is a
// no-op.
type Recorder interface {
	UploadStarted()
	UploadClosed()
	BytesReceived(n int64)
}

// Session is the stateful ingestion of one file over many chunks, scoped
// to the connection that started it.
type Session struct {
	ID           string
	ConnID       string
	RoomCode     string
	DeclaredSize int64
	OriginalName string
	MimeType     string

	mu       sync.Mutex
	received int64
	file     *os.File
	diskPath string
	urlName  string
	closed   bool
}

// Received returns the current byte count under the session's own lock.
func (s *Session) Received() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

// Manager owns every live Session, keyed by id and indexed by owning
// connection so a disconnect can find and abort all of a connection's
// in-flight uploads in one pass.
type Manager struct {
	dir      string
	maxSize  int64
	recorder Recorder

	mu       sync.Mutex
	sessions map[string]*Session
	byConn   map[string]map[string]struct{}
}

// NewManager creates a Manager rooted at dir (created if missing). maxSize
// <= 0 falls back to MaxFileSize. rec may be nil.
func NewManager(dir string, maxSize int64, rec Recorder) (*Manager, error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Manager{
		dir:      dir,
		maxSize:  maxSize,
		recorder: rec,
		sessions: make(map[string]*Session),
		byConn:   make(map[string]map[string]struct{}),
	}, nil
}

func (m *Manager) record(fn func(Recorder)) {
	if m.recorder != nil {
		fn(m.recorder)
	}
}

// Start validates the declared size, mints a storage filename and opens an
// exclusive write handle. The caller is responsible for having already
// confirmed the target room exists.
func (m *Manager) Start(connID, roomCode, originalName, mimeType string, size int64) (*Session, error) {
	if size <= 0 || size > m.maxSize {
		return nil, ErrInvalidSize
	}

	filename := storageFilename(originalName)
	diskPath := filepath.Join(m.dir, filename)
	f, err := os.OpenFile(diskPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open upload destination: %w", err)
	}

	sess := &Session{
		ID:           uuid.NewString(),
		ConnID:       connID,
		RoomCode:     roomCode,
		DeclaredSize: size,
		OriginalName: originalName,
		MimeType:     mimeType,
		file:         f,
		diskPath:     diskPath,
		urlName:      filename,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	if m.byConn[connID] == nil {
		m.byConn[connID] = make(map[string]struct{})
	}
	m.byConn[connID][sess.ID] = struct{}{}
	m.mu.Unlock()

	m.record(Recorder.UploadStarted)
	return sess, nil
}

func (m *Manager) lookupOwned(connID, uploadID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[uploadID]
	if !ok || sess.ConnID != connID {
		return nil, false
	}
	return sess, true
}

func (m *Manager) remove(sess *Session) {
	m.mu.Lock()
	delete(m.sessions, sess.ID)
	if owned := m.byConn[sess.ConnID]; owned != nil {
		delete(owned, sess.ID)
		if len(owned) == 0 {
			delete(m.byConn, sess.ConnID)
		}
	}
	m.mu.Unlock()
	m.record(Recorder.UploadClosed)
}

func (m *Manager) abort(sess *Session) {
	sess.mu.Lock()
	if !sess.closed {
		sess.closed = true
		_ = sess.file.Close()
		_ = os.Remove(sess.diskPath)
	}
	sess.mu.Unlock()
	m.remove(sess)
}

// Chunk appends data to uploadID's write stream if uploadID is owned by
// connID and still open. On quota overrun the session is aborted (its
// partial file removed) and ErrFileExceeded is returned; the caller
// should treat this the same as any other rejection kind (a negative
// ack, no broadcast) and reserve the asynchronous file-upload-error
// notification for ErrWriteFailed alone.
func (m *Manager) Chunk(connID, uploadID string, data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyChunk
	}
	sess, ok := m.lookupOwned(connID, uploadID)
	if !ok {
		return 0, ErrUnknownUpload
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return 0, ErrClosed
	}
	prospective := sess.received + int64(len(data))
	if prospective > sess.DeclaredSize || prospective > m.maxSize {
		sess.mu.Unlock()
		log.Printf("upload %s exceeded quota (declared %s, attempted %s)",
			uploadID, humanize.Bytes(uint64(sess.DeclaredSize)), humanize.Bytes(uint64(prospective)))
		m.abort(sess)
		return 0, ErrFileExceeded
	}
	if _, err := sess.file.Write(data); err != nil {
		sess.mu.Unlock()
		m.abort(sess)
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	sess.received = prospective
	received := sess.received
	sess.mu.Unlock()

	m.record(func(r Recorder) { r.BytesReceived(int64(len(data))) })
	return received, nil
}

// Complete flushes and closes uploadID's write stream and returns its
// FileMeta. The manager does not verify that bytes received equals the
// declared size; short uploads are accepted at their actual length (see
// DESIGN.md open-question resolution).
func (m *Manager) Complete(connID, uploadID string) (*model.FileMeta, error) {
	sess, ok := m.lookupOwned(connID, uploadID)
	if !ok {
		return nil, ErrUnknownUpload
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrClosed
	}
	sess.closed = true
	err := sess.file.Sync()
	if closeErr := sess.file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		sess.mu.Unlock()
		_ = os.Remove(sess.diskPath)
		m.remove(sess)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	meta := &model.FileMeta{
		ID:           sess.ID,
		URL:          "/uploads/" + sess.urlName,
		OriginalName: sess.OriginalName,
		MimeType:     sess.MimeType,
		Size:         sess.received,
		UploadedAt:   time.Now(),
	}
	sess.mu.Unlock()

	m.remove(sess)
	return meta, nil
}

// AbortAllForConn destroys every write stream and deletes every partial
// file owned by connID. It is called once, on connection teardown.
func (m *Manager) AbortAllForConn(connID string) {
	m.mu.Lock()
	owned := m.byConn[connID]
	ids := make([]string, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		sess := m.sessions[id]
		m.mu.Unlock()
		if sess != nil {
			m.abort(sess)
		}
	}
}
