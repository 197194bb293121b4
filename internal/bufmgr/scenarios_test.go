package bufmgr

import (
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"

	"github.com/lildb-project/lildb/internal/storage"
)

// TestBufferCycling exercises spec scenario 1: with a small pool, write
// id*10 into 15 pages (well more than the pool size), unpinning between
// iterations, then re-pin and read every one back.
func TestBufferCycling(t *testing.T) {
	mgr := New(TestPoolSize)
	dm := newTestDM(t, 1, "cycling")

	ids := make([]storage.PageId, 15)
	for i := range ids {
		id, err := dm.NewPage()
		require.NoError(t, err)
		ids[i] = id

		p, err := mgr.Pin(id, dm)
		require.NoError(t, err)
		require.NoError(t, p.WriteU32(0, uint32(i*10)))
		p.Release()
	}

	for i, id := range ids {
		p, err := mgr.Pin(id, dm)
		require.NoError(t, err)
		v, err := p.ReadU32(0)
		require.NoError(t, err)
		require.Equal(t, uint32(i*10), v)
		p.Release()
	}
}

// TestCrossDatabaseConcurrency exercises spec scenario 3: 25 goroutines
// each own a database, each create 5 pages and write id*10, then read
// back.
func TestCrossDatabaseConcurrency(t *testing.T) {
	mgr := New(PoolSize)

	var wg conc.WaitGroup
	for i := 0; i < 25; i++ {
		i := i
		wg.Go(func() {
			dm := newTestDM(t, storage.DatabaseId(1000+i), "xdb")
			want := uint32(i * 10)
			for j := 0; j < 5; j++ {
				id, err := dm.NewPage()
				require.NoError(t, err)
				p, err := mgr.Pin(id, dm)
				require.NoError(t, err)
				require.NoError(t, p.WriteU32(0, want))
				p.Release()

				p2, err := mgr.Pin(id, dm)
				require.NoError(t, err)
				got, err := p2.ReadU32(0)
				require.NoError(t, err)
				require.Equal(t, want, got)
				p2.Release()
			}
		})
	}
	wg.Wait()
}

// TestSameDatabaseConcurrency exercises spec scenario 4: 25 goroutines
// sharing one database, same read/write pattern.
func TestSameDatabaseConcurrency(t *testing.T) {
	mgr := New(PoolSize)
	dm := newTestDM(t, 1, "shared")

	var wg conc.WaitGroup
	for i := 0; i < 25; i++ {
		i := i
		wg.Go(func() {
			want := uint32(i * 10)
			for j := 0; j < 5; j++ {
				id, err := dm.NewPage()
				require.NoError(t, err)
				p, err := mgr.Pin(id, dm)
				require.NoError(t, err)
				require.NoError(t, p.WriteU32(0, want))
				p.Release()

				p2, err := mgr.Pin(id, dm)
				require.NoError(t, err)
				got, err := p2.ReadU32(0)
				require.NoError(t, err)
				require.Equal(t, want, got)
				p2.Release()
			}
		})
	}
	wg.Wait()
}
