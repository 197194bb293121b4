package bufmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lildb-project/lildb/internal/bx"
	"github.com/lildb-project/lildb/internal/storage"
)

func newTestDM(t *testing.T, id storage.DatabaseId, name string) *storage.DiskManager {
	t.Helper()
	dm, err := storage.Create(t.TempDir(), id, name)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return dm
}

func TestPinMissThenHit(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "hit")

	id, err := dm.NewPage()
	require.NoError(t, err)

	p1, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	require.NoError(t, p1.WriteU32(0, 0xCAFE))
	p1.Release()

	p2, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	v, err := p2.ReadU32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xCAFE), v)
	p2.Release()
}

func TestPoolFullBlocksUntilReleased(t *testing.T) {
	mgr := New(2)
	dm := newTestDM(t, 1, "full")

	var pages []*PinnedPage
	for i := 0; i < 2; i++ {
		id, err := dm.NewPage()
		require.NoError(t, err)
		p, err := mgr.Pin(id, dm)
		require.NoError(t, err)
		pages = append(pages, p)
	}

	id3, err := dm.NewPage()
	require.NoError(t, err)

	done := make(chan *PinnedPage, 1)
	go func() {
		p, err := mgr.Pin(id3, dm)
		require.NoError(t, err)
		done <- p
	}()

	select {
	case <-done:
		t.Fatal("pin should have blocked while pool is full and all frames pinned")
	case <-time.After(300 * time.Millisecond):
	}

	pages[0].Release()

	select {
	case p := <-done:
		p.Release()
	case <-time.After(1000 * time.Millisecond):
		t.Fatal("pin did not complete after a frame was released")
	}
	pages[1].Release()
}

func TestDirtyFrameFlushedOnEviction(t *testing.T) {
	mgr := New(1)
	dm := newTestDM(t, 1, "evict")

	id1, err := dm.NewPage()
	require.NoError(t, err)
	p1, err := mgr.Pin(id1, dm)
	require.NoError(t, err)
	require.NoError(t, p1.WriteU32(0, 42))
	p1.Release()

	id2, err := dm.NewPage()
	require.NoError(t, err)
	p2, err := mgr.Pin(id2, dm)
	require.NoError(t, err)
	p2.Release()

	raw, err := dm.ReadPage(id1)
	require.NoError(t, err)
	require.Equal(t, uint32(42), bx.U32At(raw.Data(), 0))
}

func TestBoundaryWriteBytes(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "boundary")
	id, err := dm.NewPage()
	require.NoError(t, err)
	p, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	defer p.Release()

	k := 16
	require.NoError(t, p.WriteBytes(storage.DataLen-k, make([]byte, k)))
	require.Error(t, p.WriteBytes(storage.DataLen-k+1, make([]byte, k)))
}

func TestFlushAllClearsDirty(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "flushall")
	id, err := dm.NewPage()
	require.NoError(t, err)
	p, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	require.NoError(t, p.WriteU64(0, 7))
	p.Release()

	require.NoError(t, mgr.FlushAll())
	require.False(t, mgr.frames[0].dirty.dirty)

	raw, err := dm.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, uint64(7), bx.U64At(raw.Data(), 0))
}

func TestPrimitiveRoundTrips(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "roundtrip")
	id, err := dm.NewPage()
	require.NoError(t, err)
	p, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.WriteU8(0, 200))
	u8, err := p.ReadU8(0)
	require.NoError(t, err)
	require.Equal(t, uint8(200), u8)

	require.NoError(t, p.WriteI64(8, -9001))
	i64, err := p.ReadI64(8)
	require.NoError(t, err)
	require.Equal(t, int64(-9001), i64)

	require.NoError(t, p.WriteF64(16, 3.14159))
	f64, err := p.ReadF64(16)
	require.NoError(t, err)
	require.Equal(t, 3.14159, f64)

	u128 := bx.Uint128{Lo: 1, Hi: 2}
	require.NoError(t, p.WriteU128(24, u128))
	got, err := p.ReadU128(24)
	require.NoError(t, err)
	require.Equal(t, u128, got)
}

func TestNextPrevLinks(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "links")
	id, err := dm.NewPage()
	require.NoError(t, err)
	p, err := mgr.Pin(id, dm)
	require.NoError(t, err)
	defer p.Release()

	p.SetNext(storage.PageId(5))
	p.SetPrev(storage.PageId(9))
	require.Equal(t, storage.PageId(5), p.Next())
	require.Equal(t, storage.PageId(9), p.Prev())
}
