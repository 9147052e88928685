package codec

import (
	"bytes"

	"github.com/siemens/dtasm/errors"
	"github.com/siemens/dtasm/model"
)

// descriptionMagic and descriptionVersion form the schema signature a
// Runtime checks on every getModelDescription response: four magic bytes
// followed by a single version byte. A mismatch means the guest speaks a
// wire schema the host does not, and is reported as KindSchemaMismatch
// rather than KindMalformed.
var descriptionMagic = [4]byte{'D', 'T', 'M', 'D'}

const descriptionVersion uint8 = 1

// EncodeModelDescription is used by the fake-guest test double and by
// anything that needs to produce a wire-format description (no real
// guest export does this; getModelDescription is guest-authored).
func EncodeModelDescription(b *Builder, d model.ModelDescription) {
	b.WriteBytes(descriptionMagic[:])
	b.WriteU8(descriptionVersion)

	writeModelInfo(b, d.Model)

	b.WriteBool(d.Experiment != nil)
	if d.Experiment != nil {
		e := d.Experiment
		b.WriteF64(e.TimeStepMin)
		b.WriteF64(e.TimeStepMax)
		b.WriteF64(e.TimeStepDefault)
		b.WriteF64(e.StartTimeDefault)
		b.WriteF64(e.EndTimeDefault)
		b.WriteString(e.TimeUnit)
	}

	b.WriteU32(uint32(len(d.Variables)))
	for _, v := range d.Variables {
		writeVariable(b, v)
	}
}

func writeModelInfo(b *Builder, m model.ModelInfo) {
	b.WriteString(m.ID)
	b.WriteString(m.Name)
	b.WriteString(m.Description)
	b.WriteString(m.GenerationTool)
	b.WriteString(m.GenerationDateTime)
	b.WriteString(m.NameDelimiter)
	b.WriteBool(m.Capabilities.CanHandleVariableStepSize)
	b.WriteBool(m.Capabilities.CanResetStep)
	b.WriteBool(m.Capabilities.CanInterpolateInputs)
}

func writeVariable(b *Builder, v model.Variable) {
	b.WriteI32(v.ID)
	b.WriteString(v.Name)
	writeVariableType(b, v.ValueType)
	writeCausalityType(b, v.Causality)
	b.WriteString(v.Description)
	b.WriteString(v.Unit)
	b.WriteI32(v.DerivativeOfID)
	b.WriteBool(v.Default != nil)
	if v.Default != nil {
		writeVariableValue(b, *v.Default)
	}
}

// DecodeModelDescription decodes a ModelDescription from the guest's
// getModelDescription output region. It is the only decode entry point
// that checks the schema signature, since it is the only message a guest
// produces without the host having dictated the layout via an encoded
// request first.
func DecodeModelDescription(buf []byte) (model.ModelDescription, error) {
	var d model.ModelDescription

	if len(buf) < 5 {
		return d, errors.Codec(errors.KindSchemaMismatch, "response shorter than schema signature")
	}
	if !bytes.Equal(buf[:4], descriptionMagic[:]) {
		return d, errors.Codec(errors.KindSchemaMismatch, "bad magic bytes")
	}
	version := buf[4]
	if version != descriptionVersion {
		return d, errors.Codec(errors.KindSchemaMismatch, "unsupported schema version")
	}

	r := NewReader(buf[5:])

	var err error
	if d.Model, err = readModelInfo(r); err != nil {
		return d, err
	}

	hasExperiment, err := r.ReadBool()
	if err != nil {
		return d, err
	}
	if hasExperiment {
		e := &model.ExperimentInfo{}
		if e.TimeStepMin, err = r.ReadF64(); err != nil {
			return d, err
		}
		if e.TimeStepMax, err = r.ReadF64(); err != nil {
			return d, err
		}
		if e.TimeStepDefault, err = r.ReadF64(); err != nil {
			return d, err
		}
		if e.StartTimeDefault, err = r.ReadF64(); err != nil {
			return d, err
		}
		if e.EndTimeDefault, err = r.ReadF64(); err != nil {
			return d, err
		}
		if e.TimeUnit, err = r.ReadString(); err != nil {
			return d, err
		}
		d.Experiment = e
	}

	count, err := r.ReadU32()
	if err != nil {
		return d, err
	}
	d.Variables = make([]model.Variable, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := readVariable(r)
		if err != nil {
			return d, err
		}
		d.Variables = append(d.Variables, v)
	}

	return d, nil
}

func readModelInfo(r *Reader) (model.ModelInfo, error) {
	var m model.ModelInfo
	var err error
	if m.ID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Description, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.GenerationTool, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.GenerationDateTime, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.NameDelimiter, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Capabilities.CanHandleVariableStepSize, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.Capabilities.CanResetStep, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.Capabilities.CanInterpolateInputs, err = r.ReadBool(); err != nil {
		return m, err
	}
	return m, nil
}

func readVariable(r *Reader) (model.Variable, error) {
	var v model.Variable
	var err error
	if v.ID, err = r.ReadI32(); err != nil {
		return v, err
	}
	if v.Name, err = r.ReadString(); err != nil {
		return v, err
	}
	if v.ValueType, err = readVariableType(r, v.ID); err != nil {
		return v, err
	}
	if v.Causality, err = readCausalityType(r, v.ID); err != nil {
		return v, err
	}
	if v.Description, err = r.ReadString(); err != nil {
		return v, err
	}
	if v.Unit, err = r.ReadString(); err != nil {
		return v, err
	}
	if v.DerivativeOfID, err = r.ReadI32(); err != nil {
		return v, err
	}
	hasDefault, err := r.ReadBool()
	if err != nil {
		return v, err
	}
	if hasDefault {
		dv, err := readVariableValue(r)
		if err != nil {
			return v, err
		}
		v.Default = &dv
	}
	return v, nil
}

// InitArgs bundles the parameters of an initialize call.
type InitArgs struct {
	ModelID    string
	Tmin       float64
	HasTmax    bool
	Tmax       float64
	HasTol     bool
	Tol        float64
	LogLevel   model.LogLevel
	Check      bool
	InitValues model.VarValues
}

// EncodeInitReq appends an init request to b.
func EncodeInitReq(b *Builder, a InitArgs) {
	b.WriteString(a.ModelID)
	b.WriteF64(a.Tmin)
	b.WriteBool(a.HasTmax)
	b.WriteF64(a.Tmax)
	b.WriteBool(a.HasTol)
	b.WriteF64(a.Tol)
	b.WriteU8(uint8(a.LogLevel))
	b.WriteBool(a.Check)
	WriteVarValues(b, a.InitValues)
}

// DecodeInitReq is used by the fake-guest test double to parse what the
// Runtime encoded, mirroring what a real guest's init export would do.
func DecodeInitReq(buf []byte) (InitArgs, error) {
	var a InitArgs
	r := NewReader(buf)
	var err error
	if a.ModelID, err = r.ReadString(); err != nil {
		return a, err
	}
	if a.Tmin, err = r.ReadF64(); err != nil {
		return a, err
	}
	if a.HasTmax, err = r.ReadBool(); err != nil {
		return a, err
	}
	if a.Tmax, err = r.ReadF64(); err != nil {
		return a, err
	}
	if a.HasTol, err = r.ReadBool(); err != nil {
		return a, err
	}
	if a.Tol, err = r.ReadF64(); err != nil {
		return a, err
	}
	lvl, err := r.ReadU8()
	if err != nil {
		return a, err
	}
	a.LogLevel = model.LogLevel(lvl)
	if a.Check, err = r.ReadBool(); err != nil {
		return a, err
	}
	if a.InitValues, err = ReadVarValues(r); err != nil {
		return a, err
	}
	return a, nil
}

// EncodeSetValuesReq appends a setValues request to b.
func EncodeSetValuesReq(b *Builder, v model.VarValues) {
	WriteVarValues(b, v)
}

// DecodeSetValuesReq mirrors a real guest's setValues export.
func DecodeSetValuesReq(buf []byte) (model.VarValues, error) {
	return ReadVarValues(NewReader(buf))
}

// EncodeGetValuesReq appends a getValues request: a list of variable ids.
func EncodeGetValuesReq(b *Builder, ids []int32) {
	b.WriteU32(uint32(len(ids)))
	for _, id := range ids {
		b.WriteI32(id)
	}
}

// DecodeGetValuesReq mirrors a real guest's getValues export.
func DecodeGetValuesReq(buf []byte) ([]int32, error) {
	r := NewReader(buf)
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, n)
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EncodeDoStepReq appends a doStep request to b.
func EncodeDoStepReq(b *Builder, currentTime, timestep float64) {
	b.WriteF64(currentTime)
	b.WriteF64(timestep)
}

// DecodeDoStepReq mirrors a real guest's doStep export.
func DecodeDoStepReq(buf []byte) (currentTime, timestep float64, err error) {
	r := NewReader(buf)
	if currentTime, err = r.ReadF64(); err != nil {
		return 0, 0, err
	}
	if timestep, err = r.ReadF64(); err != nil {
		return 0, 0, err
	}
	return currentTime, timestep, nil
}

// EncodeStatusRes appends a bare status response, used by init and
// setValues.
func EncodeStatusRes(b *Builder, status model.Status) {
	writeStatus(b, status)
}

// DecodeStatusRes decodes a bare status response.
func DecodeStatusRes(buf []byte) (model.Status, error) {
	r := NewReader(buf)
	return readStatus(r)
}

// EncodeGetValuesRes appends a getValues response to b.
func EncodeGetValuesRes(b *Builder, res model.GetValuesResponse) {
	writeStatus(b, res.Status)
	b.WriteF64(res.CurrentTime)
	hasValues := res.Status == model.StatusOK || res.Status == model.StatusWarning
	b.WriteBool(hasValues)
	if hasValues {
		WriteVarValues(b, res.Values)
	}
}

// DecodeGetValuesRes decodes a getValues response.
func DecodeGetValuesRes(buf []byte) (model.GetValuesResponse, error) {
	var res model.GetValuesResponse
	r := NewReader(buf)
	var err error
	if res.Status, err = readStatus(r); err != nil {
		return res, err
	}
	if res.CurrentTime, err = r.ReadF64(); err != nil {
		return res, err
	}
	hasValues, err := r.ReadBool()
	if err != nil {
		return res, err
	}
	if hasValues {
		if res.Values, err = ReadVarValues(r); err != nil {
			return res, err
		}
	} else {
		res.Values = model.NewVarValues()
	}
	return res, nil
}

// EncodeDoStepRes appends a doStep response to b.
func EncodeDoStepRes(b *Builder, res model.DoStepResponse) {
	writeStatus(b, res.Status)
	b.WriteF64(res.UpdatedTime)
}

// DecodeDoStepRes decodes a doStep response.
func DecodeDoStepRes(buf []byte) (model.DoStepResponse, error) {
	var res model.DoStepResponse
	r := NewReader(buf)
	var err error
	if res.Status, err = readStatus(r); err != nil {
		return res, err
	}
	if res.UpdatedTime, err = r.ReadF64(); err != nil {
		return res, err
	}
	return res, nil
}
