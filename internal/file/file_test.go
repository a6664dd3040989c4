package file

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StackCanary/os-filesystem/internal/blocks"
	"github.com/StackCanary/os-filesystem/internal/cache"
	"github.com/StackCanary/os-filesystem/internal/fcb"
	"github.com/StackCanary/os-filesystem/internal/store"
)

type fakeStore struct {
	data map[store.Key][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[store.Key][]byte{}} }

func (f *fakeStore) Put(key store.Key, value []byte) error {
	f.data[key] = append([]byte(nil), value...)
	return nil
}
func (f *fakeStore) Get(key store.Key) ([]byte, bool, error) {
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

func newIO() *IO {
	s := newFakeStore()
	return New(blocks.New(s, cache.New(s)))
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}

	payload := []byte("hello, filesystem")
	n, err := io.WriteAt(f, payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, uint64(len(payload)), f.Size)

	buf := make([]byte, len(payload))
	n, err = io.ReadAt(f, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestWriteAcrossBlockBoundary(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}

	payload := make([]byte, blockSize+10)
	for i := range payload {
		payload[i] = byte(i)
	}

	_, err := io.WriteAt(f, payload, blockSize-5)
	require.NoError(t, err)

	buf := make([]byte, len(payload))
	n, err := io.ReadAt(f, buf, blockSize-5)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestReadClampsToEOF(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}
	_, err := io.WriteAt(f, []byte("abc"), 0)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := io.ReadAt(f, buf, 1)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "bc", string(buf[:n]))
}

func TestReadPastEOFReturnsZero(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}
	_, err := io.WriteAt(f, []byte("abc"), 0)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := io.ReadAt(f, buf, 50)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestResizeGrowThenShrinkFreesBlocks(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}

	require.NoError(t, io.Resize(f, uint64(blockSize*3)))
	require.Equal(t, uint64(blockSize*3), f.Size)
	for i := 0; i < 3; i++ {
		require.False(t, f.Direct[i].IsZero())
	}

	require.NoError(t, io.Resize(f, 0))
	require.Zero(t, f.Size)
	for i := 0; i < 3; i++ {
		require.True(t, f.Direct[i].IsZero())
	}
}

func TestResizeToExactBlockBoundary(t *testing.T) {
	io := newIO()
	f := &fcb.FCB{}

	require.NoError(t, io.Resize(f, blockSize))
	require.Equal(t, 1, ceilDivBlocks(f.Size))

	require.NoError(t, io.Resize(f, blockSize+1))
	require.Equal(t, 2, ceilDivBlocks(f.Size))
}
