package transport

import "sync"

// Hub is the connID -> *Conn directory. It satisfies broadcast.Sender by
// structural typing alone; nothing in this package imports that interface.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) Get(connID string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	return c, ok
}

// Send delivers event/payload to connID if it's still registered. Unknown
// connection ids are silently ignored: the participant may have just left.
func (h *Hub) Send(connID, event string, payload any) {
	c, ok := h.Get(connID)
	if !ok {
		return
	}
	c.Send(event, payload)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
