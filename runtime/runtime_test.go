package runtime

import (
	"context"
	"math"
	"testing"

	"github.com/siemens/dtasm/codec"
	"github.com/siemens/dtasm/model"
)

func newTestRuntime(t *testing.T, bufSize uint32, opts ...Option) (*Runtime, *fakeGuest) {
	t.Helper()
	g := newFakeGuest(true)
	rt, err := New(context.Background(), g, bufSize, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt, g
}

func TestConstructionCachesDescription(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())

	if rt.Phase() != Fresh {
		t.Fatalf("phase = %v, want Fresh", rt.Phase())
	}

	d1 := rt.GetModelDescription()
	d2 := rt.GetModelDescription()
	if d1.Model.Name != d2.Model.Name || len(d1.Variables) != len(d2.Variables) {
		t.Fatal("description is not stable across calls (P1)")
	}
	if d1.Model.Name != "Fake Test Model" {
		t.Fatalf("unexpected model name %q", d1.Model.Name)
	}
}

func TestPreconditionsInFreshPhase(t *testing.T) {
	rt, g := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.DoStep(ctx, 0, 0.01); err == nil {
		t.Error("expected PreconditionError from do_step in Fresh")
	}
	if _, err := rt.GetValues(ctx, []int32{idX}); err == nil {
		t.Error("expected PreconditionError from get_values in Fresh")
	}
	if _, err := rt.SetValues(ctx, model.NewVarValues()); err == nil {
		t.Error("expected PreconditionError from set_values in Fresh")
	}
	if _, err := rt.ResetStep(ctx); err == nil {
		t.Error("expected PreconditionError from reset_step before any do_step")
	}

	if g.resetCalls != 0 {
		t.Error("guest resetStep must not have been called (P7)")
	}
}

func TestInitializeAndStep(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	init := model.NewVarValues()
	init.Real[idRate] = 2.0

	status, err := rt.Initialize(ctx, codec.InitArgs{
		ModelID:    "fake-model",
		Tmin:       0,
		LogLevel:   model.LogInfo,
		InitValues: init,
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if status != model.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if rt.Phase() != Initialized {
		t.Fatalf("phase = %v, want Initialized", rt.Phase())
	}

	res, err := rt.DoStep(ctx, 0, 0.01)
	if err != nil {
		t.Fatalf("DoStep: %v", err)
	}
	if math.Abs(res.UpdatedTime-0.01) > 1e-9 {
		t.Fatalf("updated time = %v, want 0.01 (P6)", res.UpdatedTime)
	}
	if rt.Phase() != Stepping {
		t.Fatalf("phase = %v, want Stepping", rt.Phase())
	}

	got, err := rt.GetValues(ctx, []int32{idX})
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	// rate=2.0, dt=0.01 -> x should have advanced by 0.02, non-zero.
	if got.Values.Real[idX] == 0 {
		t.Error("expected x to have advanced after do_step")
	}
}

func TestResetStep(t *testing.T) {
	rt, g := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model", InitValues: model.NewVarValues()}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := rt.DoStep(ctx, 0, 0.01); err != nil {
		t.Fatalf("DoStep: %v", err)
	}

	status, err := rt.ResetStep(ctx)
	if err != nil {
		t.Fatalf("ResetStep: %v", err)
	}
	if status != model.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if g.resetCalls != 1 {
		t.Fatalf("resetCalls = %d, want 1", g.resetCalls)
	}
	if rt.Phase() != Stepping {
		t.Fatalf("phase = %v, want Stepping unchanged by reset_step", rt.Phase())
	}

	got, err := rt.GetValues(ctx, []int32{idX})
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if got.Values.Real[idX] != 0 {
		t.Errorf("x = %v, want 0 after reset_step undid the step", got.Values.Real[idX])
	}
}

func TestResetStepRejectedWhenGuestHasNoExport(t *testing.T) {
	g := newFakeGuest(false)
	rt, err := New(context.Background(), g, 512)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model", InitValues: model.NewVarValues()}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := rt.DoStep(ctx, 0, 0.01); err != nil {
		t.Fatalf("DoStep: %v", err)
	}
	if _, err := rt.ResetStep(ctx); err == nil {
		t.Error("expected PreconditionError from reset_step when guest has no resetStep export")
	}
}

func TestSetValuesThenGetValuesRoundTrip(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	want := model.NewVarValues()
	want.Real[idRate] = 3.5
	want.Bool[idFlag] = true
	want.String[idLabel] = "hello"

	if _, err := rt.SetValues(ctx, want); err != nil {
		t.Fatalf("SetValues: %v", err)
	}

	got, err := rt.GetValues(ctx, []int32{idRate, idFlag, idLabel})
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if got.Values.Real[idRate] != 3.5 || !got.Values.Bool[idFlag] || got.Values.String[idLabel] != "hello" {
		t.Fatalf("round trip mismatch: %+v (P4)", got.Values)
	}
}

func TestInitializeRejectsWrongModelID(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())

	if _, err := rt.Initialize(context.Background(), codec.InitArgs{ModelID: "not-the-right-model"}); err == nil {
		t.Error("expected error initializing with a mismatched model id")
	}
	if rt.Phase() != Fresh {
		t.Fatalf("phase = %v, want Fresh after rejected initialize", rt.Phase())
	}
}

func TestGetValuesReadsInput(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	got, err := rt.GetValues(ctx, []int32{idFlag})
	if err != nil {
		t.Fatalf("expected an Input-causality variable to be readable, got %v", err)
	}
	if v, ok := got.Values.Bool[idFlag]; !ok || v {
		t.Errorf("flag = %v (present %v), want false", v, ok)
	}
}

func TestSetValuesRejectsOutput(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	v := model.NewVarValues()
	v.Real[idX] = 1.0 // idX is an Output, not writable
	if _, err := rt.SetValues(ctx, v); err == nil {
		t.Error("expected error setting an Output-causality variable")
	}
}

func TestSaveAndLoadState(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())
	ctx := context.Background()

	init := model.NewVarValues()
	init.Real[idRate] = 1.0
	if _, err := rt.Initialize(ctx, codec.InitArgs{ModelID: "fake-model", InitValues: init}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for i := 0; i < 50; i++ {
		if _, err := rt.DoStep(ctx, float64(i)*0.01, 0.01); err != nil {
			t.Fatalf("DoStep %d: %v", i, err)
		}
	}
	before, err := rt.GetValues(ctx, []int32{idX})
	if err != nil {
		t.Fatalf("GetValues before snapshot: %v", err)
	}

	snapshot, err := rt.SaveState(ctx)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if len(snapshot) == 0 {
		t.Fatal("expected non-empty snapshot")
	}

	// Fresh runtime, same guest, restore into it.
	fresh, freshGuest := newTestRuntime(t, 512)
	defer fresh.Close(ctx)
	_ = freshGuest

	if err := fresh.LoadState(ctx, snapshot); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if fresh.Phase() != Initialized {
		t.Fatalf("phase after load_state = %v, want Initialized", fresh.Phase())
	}

	after, err := fresh.GetValues(ctx, []int32{idX})
	if err != nil {
		t.Fatalf("GetValues after restore: %v", err)
	}
	if after.Values.Real[idX] != before.Values.Real[idX] {
		t.Fatalf("restored x = %v, want %v (P5)", after.Values.Real[idX], before.Values.Real[idX])
	}
}

func TestLoadStateRejectsBadLength(t *testing.T) {
	rt, _ := newTestRuntime(t, 512)
	defer rt.Close(context.Background())

	if err := rt.LoadState(context.Background(), []byte{1, 2, 3}); err == nil {
		t.Error("expected InvalidSnapshot for a non-page-multiple length")
	}
}

func TestDescriptionResizeRetriesUntilItFits(t *testing.T) {
	// The fake description encodes to well over 32 bytes; PolicyResize
	// (the default) must grow the regions and retry rather than fail.
	rt, _ := newTestRuntime(t, 32)
	defer rt.Close(context.Background())

	if rt.Phase() != Fresh {
		t.Fatalf("phase = %v, want Fresh", rt.Phase())
	}
	if rt.bufSize <= 32 {
		t.Fatalf("expected bufSize to have grown past 32, got %d", rt.bufSize)
	}
}

func TestDescriptionFailPolicyReportsBufferTooSmall(t *testing.T) {
	g := newFakeGuest(true)
	_, err := New(context.Background(), g, 32, WithDescriptionPolicy(PolicyFail))
	if err == nil {
		t.Fatal("expected BufferTooSmall with PolicyFail")
	}
}

func TestOptionalExportsProbed(t *testing.T) {
	withOpt, _ := newTestRuntime(t, 512)
	defer withOpt.Close(context.Background())
	if !withOpt.hasReset || !withOpt.hasTerminate {
		t.Error("expected optional exports to be detected when present")
	}

	g := newFakeGuest(false)
	without, err := New(context.Background(), g, 512)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer without.Close(context.Background())
	if without.hasReset || without.hasTerminate {
		t.Error("expected optional exports to be absent")
	}
}

func TestCloseTerminatesAndDeallocates(t *testing.T) {
	rt, g := newTestRuntime(t, 512)
	ctx := context.Background()

	if err := rt.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rt.Phase() != Terminated {
		t.Fatalf("phase after Close = %v, want Terminated", rt.Phase())
	}
	if !g.terminated {
		t.Error("expected terminate export to have been called")
	}
	if rt.inOffset != 0 || rt.outOffset != 0 {
		t.Errorf("scratch regions still held after Close: in=%d out=%d", rt.inOffset, rt.outOffset)
	}
	if err := rt.Close(ctx); err != nil {
		t.Fatalf("Close should be idempotent, got %v", err)
	}
}
