package heap

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/storage"
)

func newTestHeapFile(t *testing.T, schema []byte) (*bufmgr.BufferManager, *storage.DiskManager, *File) {
	t.Helper()
	mgr := bufmgr.New(bufmgr.TestPoolSize)
	dm, err := storage.Create(t.TempDir(), 1, "heapfile")
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	hf, err := Create(mgr, dm, schema)
	require.NoError(t, err)
	return mgr, dm, hf
}

func TestCreateRejectsOversizedSchema(t *testing.T) {
	mgr := bufmgr.New(bufmgr.TestPoolSize)
	dm, err := storage.Create(t.TempDir(), 1, "oversized")
	require.NoError(t, err)
	defer dm.Close()

	_, err = Create(mgr, dm, make([]byte, storage.DataLen+1))
	require.Error(t, err)
}

func TestCreateSeedsSchemaAndFirstPage(t *testing.T) {
	_, _, hf := newTestHeapFile(t, []byte("col:int"))

	got, err := hf.SchemaBytes()
	require.NoError(t, err)
	require.Equal(t, []byte("col:int"), got[:len("col:int")])
}

func TestInsertGetDeleteSinglePage(t *testing.T) {
	_, _, hf := newTestHeapFile(t, []byte("schema"))

	id, err := hf.Insert([]byte("row-one"))
	require.NoError(t, err)

	scan := hf.NewScan()
	gotId, data, err := scan.Next()
	require.NoError(t, err)
	require.Equal(t, id, gotId)
	require.Equal(t, []byte("row-one"), data)

	_, _, err = scan.Next()
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, hf.Delete(id))

	scan2 := hf.NewScan()
	_, _, err = scan2.Next()
	require.ErrorIs(t, err, io.EOF)
}

// TestScanFindsAllInsertedTuples exercises 500 inserts spilling across
// many pages, then a full scan yielding exactly 500 live tuples.
func TestScanFindsAllInsertedTuples(t *testing.T) {
	_, _, hf := newTestHeapFile(t, []byte("schema"))

	const n = 500
	ids := make([]TupleId, n)
	for i := 0; i < n; i++ {
		id, err := hf.Insert([]byte("tuple-payload"))
		require.NoError(t, err)
		ids[i] = id
	}

	seen := make(map[TupleId][]byte)
	scan := hf.NewScan()
	for {
		id, data, err := scan.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seen[id] = append([]byte(nil), data...)
	}

	require.Len(t, seen, n)
	for _, id := range ids {
		data, ok := seen[id]
		require.True(t, ok, "tuple id %+v missing from scan", id)
		require.Equal(t, []byte("tuple-payload"), data)
	}
}

// TestFreeListRecyclesAcrossHeapPages exercises the interaction between
// the disk manager's free list and heap-file page allocation: freeing a
// heap file's only data page and allocating a fresh one recycles the
// same page id.
func TestFreeListRecyclesAcrossHeapPages(t *testing.T) {
	mgr := bufmgr.New(bufmgr.TestPoolSize)
	dm, err := storage.Create(t.TempDir(), 1, "recycle")
	require.NoError(t, err)
	defer dm.Close()

	hf, err := Create(mgr, dm, []byte("schema"))
	require.NoError(t, err)

	firstDataPage := hf.HeaderPageId() + 1
	require.NoError(t, dm.FreePage(firstDataPage))

	newId, err := dm.NewPage()
	require.NoError(t, err)
	require.Equal(t, firstDataPage, newId)
}

func TestInsertSpillsToNewPageWhenFull(t *testing.T) {
	_, _, hf := newTestHeapFile(t, []byte("schema"))

	big := make([]byte, storage.DataLen/2)
	_, err := hf.Insert(big)
	require.NoError(t, err)
	_, err = hf.Insert(big)
	require.NoError(t, err)

	require.Len(t, hf.pageSpaceDir, 2)
}
