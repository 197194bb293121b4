package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/storage"
)

func newTestPage(t *testing.T) (*bufmgr.BufferManager, *storage.DiskManager, *bufmgr.PinnedPage) {
	t.Helper()
	mgr := bufmgr.New(bufmgr.TestPoolSize)
	dm, err := storage.Create(t.TempDir(), 1, "heappage")
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	id, err := dm.NewPage()
	require.NoError(t, err)
	pp, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	require.NoError(t, InitHeapPage(pp))
	return mgr, dm, pp
}

func TestInitHeapPageEmpty(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	n, err := NumSlots(pp)
	require.NoError(t, err)
	require.Equal(t, uint16(0), n)

	free, err := FreeSpace(pp)
	require.NoError(t, err)
	require.Equal(t, uint16(defaultFreeSpaceSize-slotSize), free)
}

func TestInsertAndGetTuple(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	slot, err := InsertTuple(pp, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint16(0), slot)

	data, ok, err := GetTuple(pp, slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)

	n, err := NumSlots(pp)
	require.NoError(t, err)
	require.Equal(t, uint16(1), n)
}

func TestDeleteTupleClearsOccupancy(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	slot, err := InsertTuple(pp, []byte("bye"))
	require.NoError(t, err)

	require.NoError(t, DeleteTuple(pp, slot))

	_, ok, err := GetTuple(pp, slot)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInsertExactBoundaryFits(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	free, err := FreeSpace(pp)
	require.NoError(t, err)

	_, err = InsertTuple(pp, make([]byte, free))
	require.NoError(t, err)
}

func TestInsertOneByteOverBoundaryFails(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	free, err := FreeSpace(pp)
	require.NoError(t, err)

	_, err = InsertTuple(pp, make([]byte, free+1))
	require.Error(t, err)
}

func TestGetTupleOutOfRange(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	_, _, err := GetTuple(pp, 0)
	require.Error(t, err)
}

func TestDeleteTupleOutOfRange(t *testing.T) {
	_, _, pp := newTestPage(t)
	defer pp.Release()

	require.Error(t, DeleteTuple(pp, 0))
}
