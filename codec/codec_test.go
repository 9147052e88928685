package codec

import (
	"testing"

	"github.com/siemens/dtasm/model"
)

func sampleDescription() model.ModelDescription {
	def := model.VariableValue{RealVal: 1.5}
	return model.ModelDescription{
		Model: model.ModelInfo{
			ID:                 "dpend",
			Name:               "Double Pendulum",
			Description:        "chaotic double pendulum",
			GenerationTool:     "dtasmctl-test",
			GenerationDateTime: "2026-01-01T00:00:00Z",
			NameDelimiter:      ".",
			Capabilities: model.Capabilities{
				CanHandleVariableStepSize: true,
				CanResetStep:              false,
				CanInterpolateInputs:      true,
			},
		},
		Experiment: &model.ExperimentInfo{
			TimeStepMin:      0.001,
			TimeStepMax:      0.1,
			TimeStepDefault:  0.01,
			StartTimeDefault: 0,
			EndTimeDefault:   10,
			TimeUnit:         "s",
		},
		Variables: []model.Variable{
			{ID: 1, Name: "theta1", ValueType: model.Real, Causality: model.Output, Default: &def},
			{ID: 2, Name: "theta2", ValueType: model.Real, Causality: model.Output},
			{ID: 3, Name: "reset", ValueType: model.Bool, Causality: model.Input},
			{ID: 4, Name: "label", ValueType: model.String, Causality: model.Parameter},
			{ID: 5, Name: "steps", ValueType: model.Int, Causality: model.Local, DerivativeOfID: 1},
		},
	}
}

func TestModelDescriptionRoundTrip(t *testing.T) {
	want := sampleDescription()

	b := NewBuilder(256)
	EncodeModelDescription(b, want)

	got, err := DecodeModelDescription(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Model != want.Model {
		t.Errorf("model info mismatch: got %+v, want %+v", got.Model, want.Model)
	}
	if *got.Experiment != *want.Experiment {
		t.Errorf("experiment mismatch: got %+v, want %+v", got.Experiment, want.Experiment)
	}
	if len(got.Variables) != len(want.Variables) {
		t.Fatalf("variable count: got %d, want %d", len(got.Variables), len(want.Variables))
	}
	for i := range want.Variables {
		g, w := got.Variables[i], want.Variables[i]
		if g.ID != w.ID || g.Name != w.Name || g.ValueType != w.ValueType || g.Causality != w.Causality || g.DerivativeOfID != w.DerivativeOfID {
			t.Errorf("variable %d mismatch: got %+v, want %+v", i, g, w)
		}
		if (g.Default == nil) != (w.Default == nil) {
			t.Errorf("variable %d default presence mismatch", i)
		}
		if g.Default != nil && *g.Default != *w.Default {
			t.Errorf("variable %d default mismatch: got %+v, want %+v", i, g.Default, w.Default)
		}
	}
}

func TestModelDescriptionSchemaMismatch(t *testing.T) {
	_, err := DecodeModelDescription([]byte("nope"))
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
}

func TestModelDescriptionNoExperiment(t *testing.T) {
	d := sampleDescription()
	d.Experiment = nil

	b := NewBuilder(128)
	EncodeModelDescription(b, d)

	got, err := DecodeModelDescription(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Experiment != nil {
		t.Errorf("expected nil experiment, got %+v", got.Experiment)
	}
}

func TestVarValuesRoundTrip(t *testing.T) {
	want := model.NewVarValues()
	want.Real[1] = 3.14
	want.Real[2] = -1.0
	want.Int[3] = 42
	want.Bool[4] = true
	want.Bool[5] = false
	want.String[6] = "hello"

	b := NewBuilder(128)
	WriteVarValues(b, want)

	got, err := ReadVarValues(NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("len mismatch: got %d, want %d", got.Len(), want.Len())
	}
	for id, v := range want.Real {
		if got.Real[id] != v {
			t.Errorf("real[%d]: got %v, want %v", id, got.Real[id], v)
		}
	}
	for id, v := range want.Int {
		if got.Int[id] != v {
			t.Errorf("int[%d]: got %v, want %v", id, got.Int[id], v)
		}
	}
	for id, v := range want.Bool {
		if got.Bool[id] != v {
			t.Errorf("bool[%d]: got %v, want %v", id, got.Bool[id], v)
		}
	}
	for id, v := range want.String {
		if got.String[id] != v {
			t.Errorf("string[%d]: got %v, want %v", id, got.String[id], v)
		}
	}
}

func TestDoStepReqRoundTrip(t *testing.T) {
	b := NewBuilder(32)
	EncodeDoStepReq(b, 1.5, 0.01)

	ct, ts, err := DecodeDoStepReq(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ct != 1.5 || ts != 0.01 {
		t.Errorf("got (%v, %v), want (1.5, 0.01)", ct, ts)
	}
}

func TestDoStepResRoundTrip(t *testing.T) {
	b := NewBuilder(16)
	EncodeDoStepRes(b, model.DoStepResponse{Status: model.StatusOK, UpdatedTime: 2.5})

	res, err := DecodeDoStepRes(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != model.StatusOK || res.UpdatedTime != 2.5 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGetValuesReqRoundTrip(t *testing.T) {
	b := NewBuilder(32)
	ids := []int32{1, 2, 3}
	EncodeGetValuesReq(b, ids)

	got, err := DecodeGetValuesReq(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("len mismatch: got %d, want %d", len(got), len(ids))
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("id %d: got %d, want %d", i, got[i], ids[i])
		}
	}
}

func TestInitReqRoundTrip(t *testing.T) {
	init := model.NewVarValues()
	init.Real[1] = 0.5

	b := NewBuilder(128)
	EncodeInitReq(b, InitArgs{
		ModelID:    "dpend",
		Tmin:       0,
		HasTmax:    true,
		Tmax:       10,
		HasTol:     false,
		LogLevel:   model.LogWarn,
		Check:      true,
		InitValues: init,
	})

	got, err := DecodeInitReq(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ModelID != "dpend" || !got.HasTmax || got.Tmax != 10 || got.HasTol || got.LogLevel != model.LogWarn || !got.Check {
		t.Errorf("unexpected init args: %+v", got)
	}
	if got.InitValues.Real[1] != 0.5 {
		t.Errorf("init values not preserved: %+v", got.InitValues)
	}
}

func TestBuilderReset(t *testing.T) {
	b := NewBuilder(8)
	b.WriteU32(42)
	if b.Len() != 4 {
		t.Fatalf("expected len 4, got %d", b.Len())
	}
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected len 0 after reset, got %d", b.Len())
	}
	b.WriteU32(7)
	r := NewReader(b.Bytes())
	v, err := r.ReadU32()
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected truncation error")
	}
}
