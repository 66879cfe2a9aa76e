package conversation

import (
	"hash/fnv"
	"sync"
)

// keyedMutex serializes the load-mutate-save sequence per conversation so
// concurrent turns on the same conversation cannot lose updates. Locks are
// striped over a fixed shard count: two different conversations may share a
// shard and briefly contend, but memory stays bounded no matter how many
// conversation IDs flow through the process.
type keyedMutex struct {
	shards []sync.Mutex
}

func newKeyedMutex(shardCount int) *keyedMutex {
	if shardCount <= 0 {
		shardCount = 64
	}
	return &keyedMutex{shards: make([]sync.Mutex, shardCount)}
}

func (m *keyedMutex) Lock(key string) func() {
	shard := &m.shards[m.index(key)]
	shard.Lock()
	return shard.Unlock
}

func (m *keyedMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.shards))
}
