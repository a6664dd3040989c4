package blocks

import (
	"testing"

	"github.com/stretchr/testify/require"

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

func newAddressing() (*Addressing, *fakeStore) {
	s := newFakeStore()
	c := cache.New(s)
	return New(s, c), s
}

func TestDirectBlockResolveAfterExtend(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	require.NoError(t, addr.Extend(f, 0))
	key, err := addr.Resolve(f, 0)
	require.NoError(t, err)
	require.False(t, key.IsZero())
}

func TestUnallocatedBlockReadsZero(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	block, err := addr.ReadBlock(f, 5)
	require.NoError(t, err)
	require.Len(t, block, BlockSize)
	for _, b := range block {
		require.Zero(t, b)
	}
}

func TestSingleIndirectFirstAllocation(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	require.NoError(t, addr.Extend(f, directBlocks))
	require.False(t, f.SingleIndirect.IsZero())

	key, err := addr.Resolve(f, directBlocks)
	require.NoError(t, err)
	require.False(t, key.IsZero())
}

func TestDoubleIndirectFirstAllocation(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	require.NoError(t, addr.Extend(f, singleIndirectLimit))
	require.False(t, f.DoubleIndirect.IsZero())

	key, err := addr.Resolve(f, singleIndirectLimit)
	require.NoError(t, err)
	require.False(t, key.IsZero())
}

func TestExtendBeyondRangeFails(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	err := addr.Extend(f, doubleIndirectLimit)
	require.Error(t, err)
}

func TestShrinkDirectClearsSlotAndFreesKey(t *testing.T) {
	addr, s := newAddressing()
	f := &fcb.FCB{}

	require.NoError(t, addr.Extend(f, 0))
	key, _ := addr.Resolve(f, 0)

	require.NoError(t, addr.Shrink(f, 0))
	require.True(t, f.Direct[0].IsZero())
	_, ok := s.data[key]
	require.False(t, ok, "shrinking a direct block must delete its backing key")
}

func TestShrinkSingleIndirectSlotZeroFreesTheTable(t *testing.T) {
	addr, s := newAddressing()
	f := &fcb.FCB{}

	require.NoError(t, addr.Extend(f, directBlocks))
	tableKey := f.SingleIndirect

	require.NoError(t, addr.Shrink(f, directBlocks))
	require.True(t, f.SingleIndirect.IsZero())
	_, ok := s.data[tableKey]
	require.False(t, ok, "freeing the only occupied slot must free the indirect table itself")
}

func TestDoubleIndirectRowBoundary(t *testing.T) {
	addr, _ := newAddressing()
	f := &fcb.FCB{}

	last := singleIndirectLimit + indirectEntries - 1
	firstOfNextRow := singleIndirectLimit + indirectEntries

	// Extend in ascending order, as Resize does, so the double-indirect
	// table and its first row exist before the row's last slot.
	for i := singleIndirectLimit; i <= last; i++ {
		require.NoError(t, addr.Extend(f, i))
	}
	require.NoError(t, addr.Extend(f, firstOfNextRow))

	k1, err := addr.Resolve(f, last)
	require.NoError(t, err)
	k2, err := addr.Resolve(f, firstOfNextRow)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}
