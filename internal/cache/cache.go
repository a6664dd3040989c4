// Package cache implements the write-through LRU that sits between the
// block-addressing layer and the key-value store.
//
// The resident set is modeled as an arena of nodes addressed by slice
// index (design notes recommend this over raw cross-linked pointers in
// a systems language) threaded into one intrusive doubly-linked list in
// MRU-to-LRU order, plus a fixed-chain hash index mapping key to arena
// index for O(1) expected lookup. Grounded on the original myfs.c
// hashtable/queue pair, with the "cache is the mandatory, storage-agnostic
// buffering layer" framing borrowed from dittofs's block cache.
package cache

import (
	"github.com/StackCanary/os-filesystem/internal/store"
)

// Capacity is the maximum number of resident block entries.
const Capacity = 30

const chains = 10

const none = -1

type node struct {
	key        store.Key
	data       []byte
	prev, next int
	inUse      bool
}

// Cache is a write-through LRU cache of block-sized payloads keyed by
// store.Key. It is not safe for concurrent use; the filesystem it backs
// dispatches operations single-threaded (see spec §5).
type Cache struct {
	backing store.Store

	arena []node
	free  []int

	buckets [chains][]int // arena indices, one slice per hash chain

	head, tail int // MRU, LRU ends of the list; none if empty
	size       int
}

// New creates a cache backed by s.
func New(s store.Store) *Cache {
	return &Cache{
		backing: s,
		head:    none,
		tail:    none,
	}
}

func fold(k store.Key) uint32 {
	var a, b, c, d uint32
	for i := 0; i < 4; i++ {
		a |= uint32(k[i]) << (8 * i)
		b |= uint32(k[4+i]) << (8 * i)
		c |= uint32(k[8+i]) << (8 * i)
		d |= uint32(k[12+i]) << (8 * i)
	}
	return a ^ b ^ c ^ d
}

func (c *Cache) chain(k store.Key) int {
	return int(fold(k) % chains)
}

func (c *Cache) lookup(k store.Key) int {
	for _, idx := range c.buckets[c.chain(k)] {
		if c.arena[idx].key == k {
			return idx
		}
	}
	return none
}

func (c *Cache) indexInsert(idx int) {
	ch := c.chain(c.arena[idx].key)
	c.buckets[ch] = append(c.buckets[ch], idx)
}

func (c *Cache) indexRemove(idx int) {
	ch := c.chain(c.arena[idx].key)
	bucket := c.buckets[ch]
	for i, v := range bucket {
		if v == idx {
			c.buckets[ch] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (c *Cache) listUnlink(idx int) {
	n := &c.arena[idx]
	if n.prev != none {
		c.arena[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if n.next != none {
		c.arena[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = none, none
}

func (c *Cache) listPushFront(idx int) {
	n := &c.arena[idx]
	n.prev = none
	n.next = c.head
	if c.head != none {
		c.arena[c.head].prev = idx
	}
	c.head = idx
	if c.tail == none {
		c.tail = idx
	}
}

func (c *Cache) promote(idx int) {
	if c.head == idx {
		return
	}
	c.listUnlink(idx)
	c.listPushFront(idx)
}

func (c *Cache) alloc() int {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx
	}
	c.arena = append(c.arena, node{})
	return len(c.arena) - 1
}

func (c *Cache) insertNew(key store.Key, data []byte) int {
	idx := c.alloc()
	c.arena[idx] = node{key: key, data: data, inUse: true}
	c.listPushFront(idx)
	c.indexInsert(idx)
	c.size++
	return idx
}

// writeBack persists the entry's current bytes via the adapter's put.
func (c *Cache) writeBack(idx int) error {
	n := &c.arena[idx]
	return c.backing.Put(n.key, n.data)
}

func (c *Cache) dropEntry(idx int) {
	c.listUnlink(idx)
	c.indexRemove(idx)
	c.arena[idx] = node{}
	c.free = append(c.free, idx)
	c.size--
}

// evictLRU writes back and removes the least-recently-used entry.
func (c *Cache) evictLRU() error {
	if c.tail == none {
		return nil
	}
	victim := c.tail
	if err := c.writeBack(victim); err != nil {
		return err
	}
	c.dropEntry(victim)
	return nil
}

func (c *Cache) ensureRoom() error {
	if c.size >= Capacity {
		return c.evictLRU()
	}
	return nil
}

// Read returns a copy of the bytes stored under key, reading through the
// adapter on a miss. The zero key bypasses the cache entirely.
func (c *Cache) Read(key store.Key) ([]byte, bool, error) {
	if key.IsZero() {
		return c.backing.Get(key)
	}

	if idx := c.lookup(key); idx != none {
		c.promote(idx)
		data := append([]byte(nil), c.arena[idx].data...)
		return data, true, nil
	}

	data, ok, err := c.backing.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	if err := c.ensureRoom(); err != nil {
		return nil, false, err
	}
	c.insertNew(key, append([]byte(nil), data...))

	return data, true, nil
}

// Write installs or overwrites the bytes stored under key, holding them
// in the cache until eviction or flush. The zero key bypasses the cache
// and is written straight through to the adapter.
func (c *Cache) Write(key store.Key, data []byte) error {
	if key.IsZero() {
		return c.backing.Put(key, data)
	}

	if idx := c.lookup(key); idx != none {
		c.arena[idx].data = append([]byte(nil), data...)
		c.promote(idx)
		return nil
	}

	if err := c.ensureRoom(); err != nil {
		return err
	}
	c.insertNew(key, append([]byte(nil), data...))
	return nil
}

// Forget drops a resident entry for key without writing it back. Used
// when the block-addressing layer deletes the underlying key so a later
// eviction cannot resurrect stale bytes.
func (c *Cache) Forget(key store.Key) {
	if key.IsZero() {
		return
	}
	if idx := c.lookup(key); idx != none {
		c.dropEntry(idx)
	}
}

// Flush writes back every resident entry, in unspecified order, without
// dropping them.
func (c *Cache) Flush() error {
	for idx := c.head; idx != none; idx = c.arena[idx].next {
		if err := c.writeBack(idx); err != nil {
			return err
		}
	}
	return nil
}
