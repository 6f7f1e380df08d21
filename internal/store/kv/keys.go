package kv

import "sync"

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Covers prefix + "idx:" + index name + two prefixed NanoIDs.
		return make([]byte, 0, 128)
	},
}

// buildKey concatenates parts into a pooled buffer.
// Callers MUST call releaseKey when done with the key. Pooled keys are for
// reads only: txn.Set and txn.Delete keep their key until commit.
//
//	key := buildKey("blog:", blogID)
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func buildKey(parts ...string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Avoid keeping oversized buffers in the pool.
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
