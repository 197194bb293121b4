package heap

import "github.com/lildb-project/lildb/internal/storage"

// TupleId identifies one tuple's location inside a heap file.
type TupleId struct {
	PageId storage.PageId
	Slot   uint16
}
