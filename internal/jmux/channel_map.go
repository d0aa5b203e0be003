package jmux

import "sync"

const initMapCapacity = 64

// channelMap is a map of local channel ids -> channels guarded by a read/write lock.
// Adapted from internal/muxado/stream_map.go's streamMap, keyed by uint32 instead of
// frame.StreamId.
type channelMap struct {
	sync.RWMutex
	table map[uint32]*channel
}

func newChannelMap() *channelMap {
	return &channelMap{table: make(map[uint32]*channel, initMapCapacity)}
}

func (m *channelMap) get(id uint32) (*channel, bool) {
	m.RLock()
	c, ok := m.table[id]
	m.RUnlock()
	return c, ok
}

func (m *channelMap) set(id uint32, c *channel) {
	m.Lock()
	m.table[id] = c
	m.Unlock()
}

func (m *channelMap) delete(id uint32) {
	m.Lock()
	delete(m.table, id)
	m.Unlock()
}

func (m *channelMap) len() int {
	m.RLock()
	n := len(m.table)
	m.RUnlock()
	return n
}

// each snapshots the table and invokes fn for every channel, so fn may itself call
// back into the map (e.g. to delete) without deadlocking.
func (m *channelMap) each(fn func(id uint32, c *channel)) {
	m.RLock()
	snapshot := make(map[uint32]*channel, len(m.table))
	for k, v := range m.table {
		snapshot[k] = v
	}
	m.RUnlock()

	for id, c := range snapshot {
		fn(id, c)
	}
}
