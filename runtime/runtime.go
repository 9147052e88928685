package runtime

import (
	"context"
	"fmt"

	"github.com/siemens/dtasm/codec"
	"github.com/siemens/dtasm/errors"
	"github.com/siemens/dtasm/model"
	"github.com/siemens/dtasm/wasmhost"
)

// DescriptionPolicy controls how the Runtime reacts when the guest's
// getModelDescription response is larger than the configured buffer size.
type DescriptionPolicy uint8

const (
	// PolicyResize re-provisions both scratch regions at a larger size
	// and retries, doubling until the description fits. This is the
	// default: it mirrors the behavior of the reference implementation's
	// retry loop, which doubles from a 2048-byte base.
	PolicyResize DescriptionPolicy = iota
	// PolicyFail returns BufferTooSmall instead of retrying. Preferred
	// by callers that want buffer sizing to be an explicit, caller-
	// controlled decision rather than a silent reallocation.
	PolicyFail
)

// maxDescriptionRetries bounds the resize loop so a guest that always
// reports an impossibly large length cannot spin the host forever.
const maxDescriptionRetries = 24

const (
	exportAlloc               = "alloc"
	exportDealloc             = "dealloc"
	exportGetModelDescription = "getModelDescription"
	exportInit                = "init"
	exportGetValues           = "getValues"
	exportSetValues           = "setValues"
	exportDoStep              = "doStep"
	exportResetStep           = "resetStep"
	exportTerminate           = "terminate"
)

// Runtime is the host-side state machine for one guest instance: the
// pre-allocated in/out scratch regions, the cached model description, and
// the call-ordering phase.
type Runtime struct {
	instance GuestInstance

	handles      map[string]wasmhost.ExportHandle
	hasReset     bool
	hasTerminate bool

	bufSize   uint32
	inOffset  uint32
	outOffset uint32

	description model.ModelDescription
	varTypes    map[int32]varInfo

	phase   Phase
	simTime float64

	builder *codec.Builder
	policy  DescriptionPolicy
}

// Option configures New.
type Option func(*Runtime)

// WithDescriptionPolicy overrides the default resize-on-overflow policy
// for getModelDescription.
func WithDescriptionPolicy(p DescriptionPolicy) Option {
	return func(r *Runtime) { r.policy = p }
}

// New instantiates the host/guest call protocol against an already
// wasmhost.Instance: resolves exports, allocates the scratch regions,
// fetches and caches the model description, and leaves the Runtime in
// phase Fresh.
func New(ctx context.Context, instance GuestInstance, bufSize uint32, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		instance: instance,
		handles:  make(map[string]wasmhost.ExportHandle),
		bufSize:  bufSize,
		phase:    Terminated, // not usable until construction below succeeds
		builder:  codec.NewBuilder(int(bufSize)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, name := range wasmhost.RequiredExports {
		h, err := instance.FindExport(name)
		if err != nil {
			return nil, err
		}
		r.handles[name] = h
	}
	for _, name := range wasmhost.OptionalExports {
		if !instance.HasExport(name) {
			continue
		}
		h, err := instance.FindExport(name)
		if err != nil {
			continue
		}
		r.handles[name] = h
		switch name {
		case exportResetStep:
			r.hasReset = true
		case exportTerminate:
			r.hasTerminate = true
		}
	}

	if err := r.provisionRegions(ctx, bufSize); err != nil {
		return nil, err
	}

	if err := r.loadDescription(ctx); err != nil {
		return nil, err
	}

	r.phase = Fresh
	return r, nil
}

// alloc calls the guest's alloc export and returns the offset it hands
// back, or a RuntimeError if the guest reports out-of-memory (offset 0).
func (r *Runtime) alloc(ctx context.Context, size uint32) (uint32, error) {
	results, err := r.instance.Call(ctx, r.handles[exportAlloc], uint64(size))
	if err != nil {
		return 0, err
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindMemoryOverflow).
			Detail("guest alloc(%d) returned 0", size).Build()
	}
	return ptr, nil
}

func (r *Runtime) dealloc(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	if _, err := r.instance.Call(ctx, r.handles[exportDealloc], uint64(ptr)); err != nil {
		Logger().Sugar().Warnf("dealloc(%d) failed: %v", ptr, err)
	}
}

// provisionRegions allocates fresh out_region/in_region of the given size,
// replacing any the Runtime currently holds.
func (r *Runtime) provisionRegions(ctx context.Context, size uint32) error {
	r.dealloc(ctx, r.outOffset)
	r.dealloc(ctx, r.inOffset)
	r.outOffset = 0
	r.inOffset = 0

	out, err := r.alloc(ctx, size)
	if err != nil {
		return err
	}
	in, err := r.alloc(ctx, size)
	if err != nil {
		r.dealloc(ctx, out)
		return err
	}
	r.outOffset = out
	r.inOffset = in
	r.bufSize = size
	return nil
}

// loadDescription calls getModelDescription, applying the configured
// resize/fail policy, then decodes and caches the result.
func (r *Runtime) loadDescription(ctx context.Context) error {
	size := r.bufSize
	for attempt := 0; ; attempt++ {
		results, err := r.instance.Call(ctx, r.handles[exportGetModelDescription], uint64(r.outOffset), uint64(size))
		if err != nil {
			return err
		}
		length := int32(results[0])
		if length < 0 {
			return errors.GuestStatus("getModelDescription reported a negative length")
		}
		if uint32(length) <= size {
			buf, err := r.instance.ReadMemory(r.outOffset, uint32(length))
			if err != nil {
				return err
			}
			d, err := codec.DecodeModelDescription(buf)
			if err != nil {
				return err
			}
			r.description = d
			r.varTypes = collectVarTypes(d)
			return nil
		}

		if r.policy == PolicyFail {
			return errors.BufferTooSmall(errors.PhaseRuntime, uint32(length), size)
		}
		if attempt >= maxDescriptionRetries {
			return errors.BufferTooSmall(errors.PhaseRuntime, uint32(length), size)
		}
		size *= 2
		if err := r.provisionRegions(ctx, size); err != nil {
			return err
		}
	}
}

// GetModelDescription returns the cached description. Pure accessor, legal
// in every non-Terminated phase.
func (r *Runtime) GetModelDescription() model.ModelDescription {
	return r.description
}

// Phase returns the Runtime's current call-ordering phase.
func (r *Runtime) Phase() Phase {
	return r.phase
}

// CurrentTime returns the simulated time last reported by initialize or
// do_step.
func (r *Runtime) CurrentTime() float64 {
	return r.simTime
}

// callInputOutput performs one request/response round trip as described
// in spec §4.3: stage reqBytes at in_region, invoke handle with
// (in_offset, in_len, out_offset, B), then slice and return the response.
func (r *Runtime) callInputOutput(ctx context.Context, handle wasmhost.ExportHandle, reqBytes []byte) ([]byte, error) {
	memSize := r.instance.MemorySizeBytes()
	if r.inOffset+uint32(len(reqBytes)) > memSize {
		return nil, errors.LinearMemoryOverflow("request does not fit in current linear memory")
	}
	if err := r.instance.WriteMemory(r.inOffset, reqBytes); err != nil {
		return nil, err
	}

	results, err := r.instance.Call(ctx, handle, uint64(r.inOffset), uint64(len(reqBytes)), uint64(r.outOffset), uint64(r.bufSize))
	if err != nil {
		r.phase = Terminated
		return nil, err
	}

	length := int32(results[0])
	if length < 0 {
		r.phase = Terminated
		return nil, errors.GuestStatus("guest reported a negative response length")
	}
	if uint32(length) > r.bufSize {
		r.phase = Terminated
		return nil, errors.BufferTooSmall(errors.PhaseRuntime, uint32(length), r.bufSize)
	}

	memSize = r.instance.MemorySizeBytes()
	if r.outOffset+uint32(length) > memSize {
		r.phase = Terminated
		return nil, errors.LinearMemoryOverflow("response exceeds current linear memory")
	}
	buf, err := r.instance.ReadMemory(r.outOffset, uint32(length))
	if err != nil {
		r.phase = Terminated
		return nil, err
	}
	return buf, nil
}

// statusErr maps a non-OK guest status to an error per spec §7: Warning
// and Discard are not errors; Error fails the call but leaves the Runtime
// usable; Fatal fails the call and terminates the Runtime.
func (r *Runtime) statusErr(s model.Status) error {
	switch s {
	case model.StatusOK, model.StatusWarning, model.StatusDiscard:
		return nil
	case model.StatusFatal:
		r.phase = Terminated
		return errors.GuestStatus("guest reported status Fatal")
	default: // StatusError
		return errors.GuestStatus("guest reported status Error")
	}
}

// Initialize seeds the simulation. Legal from any non-Terminated phase;
// on success the Runtime transitions to Initialized.
func (r *Runtime) Initialize(ctx context.Context, args codec.InitArgs) (model.Status, error) {
	if r.phase == Terminated {
		return 0, errors.Precondition("initialize", "a non-terminated Runtime")
	}
	if args.ModelID != r.description.Model.ID {
		return 0, errors.Codec(errors.KindInvalidData,
			fmt.Sprintf("init request model id %q does not match description id %q", args.ModelID, r.description.Model.ID))
	}
	if err := validateInitValues(r.varTypes, args.InitValues); err != nil {
		return 0, err
	}

	r.builder.Reset()
	codec.EncodeInitReq(r.builder, args)
	resBytes, err := r.callInputOutput(ctx, r.handles[exportInit], r.builder.Bytes())
	if err != nil {
		return 0, err
	}

	status, err := codec.DecodeStatusRes(resBytes)
	if err != nil {
		return 0, err
	}
	if err := r.statusErr(status); err != nil {
		return status, err
	}
	r.phase = Initialized
	r.simTime = args.Tmin
	return status, nil
}

// SetValues writes input/parameter variables into the guest. Legal in
// Initialized and Stepping.
func (r *Runtime) SetValues(ctx context.Context, values model.VarValues) (model.Status, error) {
	if !r.phase.canStep() {
		return 0, errors.Precondition("set_values", "initialize or load_state")
	}
	if err := validateSetValues(r.varTypes, values); err != nil {
		return 0, err
	}

	r.builder.Reset()
	codec.EncodeSetValuesReq(r.builder, values)
	resBytes, err := r.callInputOutput(ctx, r.handles[exportSetValues], r.builder.Bytes())
	if err != nil {
		return 0, err
	}

	status, err := codec.DecodeStatusRes(resBytes)
	if err != nil {
		return 0, err
	}
	return status, r.statusErr(status)
}

// GetValues reads declared variables of any causality from the guest.
// Legal in Initialized and Stepping.
func (r *Runtime) GetValues(ctx context.Context, ids []int32) (model.GetValuesResponse, error) {
	if !r.phase.canStep() {
		return model.GetValuesResponse{}, errors.Precondition("get_values", "initialize or load_state")
	}
	if err := validateGetValues(r.varTypes, ids); err != nil {
		return model.GetValuesResponse{}, err
	}

	r.builder.Reset()
	codec.EncodeGetValuesReq(r.builder, ids)
	resBytes, err := r.callInputOutput(ctx, r.handles[exportGetValues], r.builder.Bytes())
	if err != nil {
		return model.GetValuesResponse{}, err
	}

	res, err := codec.DecodeGetValuesRes(resBytes)
	if err != nil {
		return model.GetValuesResponse{}, err
	}
	return res, r.statusErr(res.Status)
}

// DoStep advances the guest's simulated clock by timestep, starting from
// currentTime. Legal in Initialized and Stepping; transitions to Stepping
// on success.
func (r *Runtime) DoStep(ctx context.Context, currentTime, timestep float64) (model.DoStepResponse, error) {
	if !r.phase.canStep() {
		return model.DoStepResponse{}, errors.Precondition("do_step", "initialize or load_state")
	}

	r.builder.Reset()
	codec.EncodeDoStepReq(r.builder, currentTime, timestep)
	resBytes, err := r.callInputOutput(ctx, r.handles[exportDoStep], r.builder.Bytes())
	if err != nil {
		return model.DoStepResponse{}, err
	}

	res, err := codec.DecodeDoStepRes(resBytes)
	if err != nil {
		return model.DoStepResponse{}, err
	}
	if err := r.statusErr(res.Status); err != nil {
		return res, err
	}
	r.phase = Stepping
	r.simTime = res.UpdatedTime
	return res, nil
}

// ResetStep undoes the most recently completed do_step, letting the caller
// retry it with different inputs or a different timestep. Only defined once
// a do_step has succeeded (phase Stepping); returns PreconditionError if the
// guest never exported resetStep.
func (r *Runtime) ResetStep(ctx context.Context) (model.Status, error) {
	if !r.hasReset {
		return 0, errors.Precondition("reset_step", "a guest exporting resetStep")
	}
	if r.phase != Stepping {
		return 0, errors.Precondition("reset_step", "a completed do_step")
	}

	r.builder.Reset()
	resBytes, err := r.callInputOutput(ctx, r.handles[exportResetStep], r.builder.Bytes())
	if err != nil {
		return 0, err
	}

	status, err := codec.DecodeStatusRes(resBytes)
	if err != nil {
		return 0, err
	}
	return status, r.statusErr(status)
}

// Close releases the scratch regions and tears down the execution
// instance. Idempotent. If a fault has already moved the Runtime to
// Terminated, no further guest export is called and only the instance is
// torn down.
func (r *Runtime) Close(ctx context.Context) error {
	if r.instance == nil {
		return nil
	}
	if r.phase != Terminated {
		if r.hasTerminate {
			if _, err := r.instance.Call(ctx, r.handles[exportTerminate]); err != nil {
				Logger().Sugar().Warnf("terminate export failed: %v", err)
			}
		}
		r.dealloc(ctx, r.outOffset)
		r.dealloc(ctx, r.inOffset)
		r.outOffset, r.inOffset = 0, 0
	}
	r.phase = Terminated
	inst := r.instance
	r.instance = nil
	return inst.Close(ctx)
}
