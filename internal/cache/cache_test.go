package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StackCanary/os-filesystem/internal/store"
)

type fakeStore struct {
	data map[store.Key][]byte
	gets int
	puts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[store.Key][]byte{}}
}

func (f *fakeStore) Put(key store.Key, value []byte) error {
	f.puts++
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) Get(key store.Key) ([]byte, bool, error) {
	f.gets++
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Append(key store.Key, value []byte) error {
	f.data[key] = append(f.data[key], value...)
	return nil
}

func (f *fakeStore) Delete(key store.Key) error {
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func keyFor(b byte) store.Key {
	var k store.Key
	k[0] = b
	return k
}

func TestWriteThenReadHitsCacheNotBacking(t *testing.T) {
	backing := newFakeStore()
	c := New(backing)

	k := keyFor(1)
	require.NoError(t, c.Write(k, []byte("hello")))

	data, ok, err := c.Read(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", string(data))
	require.Zero(t, backing.gets, "a resident entry must not hit the backing store")
}

func TestFlushPersistsWithoutEvicting(t *testing.T) {
	backing := newFakeStore()
	c := New(backing)

	k := keyFor(1)
	require.NoError(t, c.Write(k, []byte("payload")))
	require.NoError(t, c.Flush())

	require.Equal(t, "payload", string(backing.data[k]))

	_, ok, err := c.Read(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, backing.gets, "flush must not drop the entry from residency")
}

func TestEvictionWritesBackLRU(t *testing.T) {
	backing := newFakeStore()
	c := New(backing)

	// Keys start at 1: keyFor(0) is the zero key, which bypasses the cache.
	for i := 1; i <= Capacity; i++ {
		require.NoError(t, c.Write(keyFor(byte(i)), []byte{byte(i)}))
	}

	// Re-touch everything except key 1, so it stays the least-recently-used.
	for i := 2; i <= Capacity; i++ {
		_, _, err := c.Read(keyFor(byte(i)))
		require.NoError(t, err)
	}

	require.NoError(t, c.Write(keyFor(200), []byte{200}))

	require.Equal(t, []byte{1}, backing.data[keyFor(1)], "evicted entry must be written back")
}

func TestForgetDropsWithoutWriteBack(t *testing.T) {
	backing := newFakeStore()
	c := New(backing)

	k := keyFor(1)
	require.NoError(t, c.Write(k, []byte("x")))
	c.Forget(k)

	require.NotContains(t, backing.data, k)

	require.NoError(t, c.Flush())
	require.NotContains(t, backing.data, k)
}

func TestZeroKeyBypassesCache(t *testing.T) {
	backing := newFakeStore()
	c := New(backing)

	require.NoError(t, c.Write(store.ZeroKey, []byte("root")))
	require.Equal(t, 1, backing.puts)

	_, ok, err := c.Read(store.ZeroKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, backing.gets)
}
