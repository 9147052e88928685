package runtime

import (
	"context"

	"github.com/siemens/dtasm/errors"
	"github.com/siemens/dtasm/wasmhost"
)

// SaveState captures the guest's entire linear memory. The scratch
// regions are released before the copy (so a snapshot never contains
// stale scratch, per invariant I3) and re-acquired immediately after.
func (r *Runtime) SaveState(ctx context.Context) ([]byte, error) {
	if r.phase == Terminated {
		return nil, errors.Precondition("save_state", "a non-terminated Runtime")
	}
	if r.phase == Fresh {
		return nil, errors.Precondition("save_state", "initialize or load_state")
	}

	r.dealloc(ctx, r.inOffset)
	r.dealloc(ctx, r.outOffset)
	r.inOffset, r.outOffset = 0, 0

	memSize := r.instance.MemorySizeBytes()
	snapshot, err := r.instance.ReadMemory(0, memSize)
	if err != nil {
		r.phase = Terminated
		return nil, err
	}

	out, err := r.alloc(ctx, r.bufSize)
	if err != nil {
		r.phase = Terminated
		return nil, err
	}
	in, err := r.alloc(ctx, r.bufSize)
	if err != nil {
		r.phase = Terminated
		return nil, err
	}
	r.outOffset, r.inOffset = out, in

	return snapshot, nil
}

// LoadState restores a snapshot produced by SaveState (of the same
// Module) into this Runtime, growing linear memory if necessary, and
// transitions the Runtime to Initialized.
func (r *Runtime) LoadState(ctx context.Context, snapshot []byte) error {
	if r.phase == Terminated {
		return errors.Precondition("load_state", "a non-terminated Runtime")
	}
	if len(snapshot) == 0 || len(snapshot)%wasmhost.PageSize != 0 {
		return errors.InvalidSnapshot(len(snapshot))
	}

	neededPages := uint32(len(snapshot) / wasmhost.PageSize)
	currentPages := r.instance.MemorySizeBytes() / wasmhost.PageSize
	if currentPages < neededPages {
		if _, err := r.instance.GrowMemory(ctx, neededPages-currentPages); err != nil {
			r.phase = Terminated
			return err
		}
	}

	if err := r.instance.WriteMemory(0, snapshot); err != nil {
		r.phase = Terminated
		return err
	}

	out, err := r.alloc(ctx, r.bufSize)
	if err != nil {
		r.phase = Terminated
		return err
	}
	in, err := r.alloc(ctx, r.bufSize)
	if err != nil {
		r.phase = Terminated
		return err
	}
	r.outOffset, r.inOffset = out, in

	r.phase = Initialized
	return nil
}
