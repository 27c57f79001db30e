package backup

import "sync"

// cursorCell is the shared "last known position" of the key lister.
// Written only by the producer loop, read by the interrupt path, so the
// shutdown save never races a normal cursor update.
type cursorCell struct {
	mu    sync.RWMutex
	value string
}

func (c *cursorCell) set(cursor string) {
	c.mu.Lock()
	c.value = cursor
	c.mu.Unlock()
}

func (c *cursorCell) get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}
