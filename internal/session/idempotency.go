package session

import (
	"container/list"
	"fmt"
)

const idempotencyLRUCapacity = 10000

// IdempotencyChecker implements two-tier deduplication for inbox messages
type IdempotencyChecker struct {
	// Tier 1: In-memory LRU
	lru *idempotencyLRU

	// Tier 2: Postgres (injected via interface)
	dbChecker DBIdempotencyChecker
}

// DBIdempotencyChecker is the interface for Postgres dedup lookup
type DBIdempotencyChecker interface {
	IsDuplicate(channel string, messageID string) (bool, error)
}

func NewIdempotencyChecker(capacity int, dbChecker DBIdempotencyChecker) *IdempotencyChecker {
	return &IdempotencyChecker{
		lru:       newIdempotencyLRU(capacity),
		dbChecker: dbChecker,
	}
}

// IsDuplicate checks if a message has been processed (two-tier lookup)
func (ic *IdempotencyChecker) IsDuplicate(channel string, messageID string) bool {
	compositeKey := fmt.Sprintf("%s:%s", channel, messageID)

	// Tier 1: LRU check (hot path)
	if ic.lru.Contains(compositeKey) {
		return true
	}

	// Tier 2: Postgres check (cold path)
	if ic.dbChecker != nil {
		isDup, err := ic.dbChecker.IsDuplicate(channel, messageID)
		if err != nil {
			// Conservative: a DB issue must not block message processing
			return false
		}
		if isDup {
			// Add to LRU so we don't hit DB again
			ic.lru.Add(compositeKey)
			return true
		}
	}

	return false
}

// MarkProcessed adds the key to the LRU after successful processing
func (ic *IdempotencyChecker) MarkProcessed(channel string, messageID string) {
	ic.lru.Add(fmt.Sprintf("%s:%s", channel, messageID))
}

// WarmFromKeys loads recently processed composite keys into the LRU so a
// restart does not pay the cold-path DB lookup for fresh traffic.
func (ic *IdempotencyChecker) WarmFromKeys(keys []string) {
	for _, key := range keys {
		ic.lru.Add(key)
	}
}

// Size returns the current number of cached keys
func (ic *IdempotencyChecker) Size() int {
	return ic.lru.Size()
}

// --- LRU Implementation ---

// idempotencyLRU is an LRU cache for message keys.
// Not thread-safe — callers hold the engine lock.
type idempotencyLRU struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List
}

type lruEntry struct {
	key string
}

func newIdempotencyLRU(capacity int) *idempotencyLRU {
	return &idempotencyLRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Contains checks if key exists (promotes to front)
func (lru *idempotencyLRU) Contains(key string) bool {
	elem, exists := lru.cache[key]
	if exists {
		lru.lruList.MoveToFront(elem)
		return true
	}
	return false
}

// Add inserts a key (or promotes if exists)
func (lru *idempotencyLRU) Add(key string) {
	if elem, exists := lru.cache[key]; exists {
		lru.lruList.MoveToFront(elem)
		return
	}

	entry := &lruEntry{key: key}
	elem := lru.lruList.PushFront(entry)
	lru.cache[key] = elem

	if lru.lruList.Len() > lru.capacity {
		lru.evictOldest()
	}
}

func (lru *idempotencyLRU) evictOldest() {
	elem := lru.lruList.Back()
	if elem != nil {
		lru.lruList.Remove(elem)
		entry := elem.Value.(*lruEntry)
		delete(lru.cache, entry.key)
	}
}

func (lru *idempotencyLRU) Size() int {
	return lru.lruList.Len()
}
