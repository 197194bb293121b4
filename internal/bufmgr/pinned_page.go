package bufmgr

import (
	"go.uber.org/atomic"

	"github.com/lildb-project/lildb/internal/bx"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/storage"
)

// PinnedPage is the capability handle returned by Pin: it guarantees the
// underlying frame stays resident while the handle is live, arbitrates
// access to the page bytes with a reader-writer lock, and sets the dirty
// flag on every write. Release must be called exactly once (there is no
// destructor in Go; callers are expected to `defer page.Release()`).
type PinnedPage struct {
	mgr   *BufferManager
	index int

	bytes *sharedBytes
	dirty *dirtyFlag

	databaseID storage.DatabaseId
	pageID     storage.PageId

	released atomic.Bool
}

// DatabaseId and PageId report the identity of the pinned page. Safe to
// read without additional locking: the frame can't be evicted or
// overwritten while this handle is held.
func (p *PinnedPage) DatabaseId() storage.DatabaseId { return p.databaseID }
func (p *PinnedPage) PageId() storage.PageId         { return p.pageID }

// Release unpins the frame. Safe to call more than once; only the first
// call has an effect.
func (p *PinnedPage) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.mgr.unpin(p.index)
}

func (p *PinnedPage) markDirty() {
	p.dirty.mu.Lock()
	p.dirty.dirty = true
	p.dirty.mu.Unlock()
}

func (p *PinnedPage) checkBounds(offset, width int) error {
	if offset < 0 || width < 0 || offset+width > storage.DataLen {
		return lilderr.New(lilderr.Internal, "page access out of bounds: offset=%d width=%d", offset, width)
	}
	return nil
}

// Next and Prev read the generic page header's link fields.
func (p *PinnedPage) Next() storage.PageId {
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return storage.HeaderNext(&p.bytes.buf)
}

func (p *PinnedPage) Prev() storage.PageId {
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return storage.HeaderPrev(&p.bytes.buf)
}

func (p *PinnedPage) SetNext(id storage.PageId) {
	p.bytes.mu.Lock()
	storage.SetHeaderNext(&p.bytes.buf, id)
	p.bytes.mu.Unlock()
	p.markDirty()
}

func (p *PinnedPage) SetPrev(id storage.PageId) {
	p.bytes.mu.Lock()
	storage.SetHeaderPrev(&p.bytes.buf, id)
	p.bytes.mu.Unlock()
	p.markDirty()
}

// ReadBytes copies length bytes starting at offset within the data
// region (not the header) into a fresh buffer.
func (p *PinnedPage) ReadBytes(offset, length int) ([]byte, error) {
	if err := p.checkBounds(offset, length); err != nil {
		return nil, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	out := make([]byte, length)
	copy(out, p.bytes.buf.Data()[offset:offset+length])
	return out, nil
}

// WriteBytes writes data into the data region at offset and marks the
// frame dirty.
func (p *PinnedPage) WriteBytes(offset int, data []byte) error {
	if err := p.checkBounds(offset, len(data)); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	copy(p.bytes.buf.Data()[offset:offset+len(data)], data)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadU8(offset int) (uint8, error) {
	if err := p.checkBounds(offset, 1); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.U8At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteU8(offset int, v uint8) error {
	if err := p.checkBounds(offset, 1); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutU8At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadU16(offset int) (uint16, error) {
	if err := p.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.U16At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteU16(offset int, v uint16) error {
	if err := p.checkBounds(offset, 2); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutU16At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadU32(offset int) (uint32, error) {
	if err := p.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.U32At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteU32(offset int, v uint32) error {
	if err := p.checkBounds(offset, 4); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutU32At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadU64(offset int) (uint64, error) {
	if err := p.checkBounds(offset, 8); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.U64At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteU64(offset int, v uint64) error {
	if err := p.checkBounds(offset, 8); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutU64At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadU128(offset int) (bx.Uint128, error) {
	if err := p.checkBounds(offset, 16); err != nil {
		return bx.Uint128{}, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.U128At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteU128(offset int, v bx.Uint128) error {
	if err := p.checkBounds(offset, 16); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutU128At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadI8(offset int) (int8, error) {
	if err := p.checkBounds(offset, 1); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.I8At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteI8(offset int, v int8) error {
	if err := p.checkBounds(offset, 1); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutI8At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadI16(offset int) (int16, error) {
	if err := p.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.I16At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteI16(offset int, v int16) error {
	if err := p.checkBounds(offset, 2); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutI16At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadI32(offset int) (int32, error) {
	if err := p.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.I32At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteI32(offset int, v int32) error {
	if err := p.checkBounds(offset, 4); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutI32At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadI64(offset int) (int64, error) {
	if err := p.checkBounds(offset, 8); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.I64At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteI64(offset int, v int64) error {
	if err := p.checkBounds(offset, 8); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutI64At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadI128(offset int) (bx.Int128, error) {
	if err := p.checkBounds(offset, 16); err != nil {
		return bx.Int128{}, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.I128At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteI128(offset int, v bx.Int128) error {
	if err := p.checkBounds(offset, 16); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutI128At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadF32(offset int) (float32, error) {
	if err := p.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.F32At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteF32(offset int, v float32) error {
	if err := p.checkBounds(offset, 4); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutF32At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}

func (p *PinnedPage) ReadF64(offset int) (float64, error) {
	if err := p.checkBounds(offset, 8); err != nil {
		return 0, err
	}
	p.bytes.mu.RLock()
	defer p.bytes.mu.RUnlock()
	return bx.F64At(p.bytes.buf.Data(), offset), nil
}

func (p *PinnedPage) WriteF64(offset int, v float64) error {
	if err := p.checkBounds(offset, 8); err != nil {
		return err
	}
	p.bytes.mu.Lock()
	bx.PutF64At(p.bytes.buf.Data(), offset, v)
	p.bytes.mu.Unlock()
	p.markDirty()
	return nil
}
