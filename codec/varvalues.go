package codec

import (
	"github.com/siemens/dtasm/errors"
	"github.com/siemens/dtasm/model"
)

// WriteVarValues appends a VarValues bundle: four length-prefixed
// sequences of (id, value) pairs, one per value type, in Real/Int/Bool/
// String order.
func WriteVarValues(b *Builder, v model.VarValues) {
	b.WriteU32(uint32(len(v.Real)))
	for id, val := range v.Real {
		b.WriteI32(id)
		b.WriteF64(val)
	}
	b.WriteU32(uint32(len(v.Int)))
	for id, val := range v.Int {
		b.WriteI32(id)
		b.WriteI32(val)
	}
	b.WriteU32(uint32(len(v.Bool)))
	for id, val := range v.Bool {
		b.WriteI32(id)
		b.WriteBool(val)
	}
	b.WriteU32(uint32(len(v.String)))
	for id, val := range v.String {
		b.WriteI32(id)
		b.WriteString(val)
	}
}

// ReadVarValues decodes a VarValues bundle written by WriteVarValues.
func ReadVarValues(r *Reader) (model.VarValues, error) {
	v := model.NewVarValues()

	n, err := r.ReadU32()
	if err != nil {
		return v, err
	}
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadI32()
		if err != nil {
			return v, err
		}
		val, err := r.ReadF64()
		if err != nil {
			return v, err
		}
		v.Real[id] = val
	}

	n, err = r.ReadU32()
	if err != nil {
		return v, err
	}
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadI32()
		if err != nil {
			return v, err
		}
		val, err := r.ReadI32()
		if err != nil {
			return v, err
		}
		v.Int[id] = val
	}

	n, err = r.ReadU32()
	if err != nil {
		return v, err
	}
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadI32()
		if err != nil {
			return v, err
		}
		val, err := r.ReadBool()
		if err != nil {
			return v, err
		}
		v.Bool[id] = val
	}

	n, err = r.ReadU32()
	if err != nil {
		return v, err
	}
	for i := uint32(0); i < n; i++ {
		id, err := r.ReadI32()
		if err != nil {
			return v, err
		}
		val, err := r.ReadString()
		if err != nil {
			return v, err
		}
		v.String[id] = val
	}

	return v, nil
}

func writeVariableType(b *Builder, t model.VariableType) {
	b.WriteU8(uint8(t))
}

func readVariableType(r *Reader, variableID int32) (model.VariableType, error) {
	v, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	if v > uint8(model.String) {
		return 0, errors.CodecVariable(errors.KindInvalidEnum, variableID, "unknown VariableType value")
	}
	return model.VariableType(v), nil
}

func writeCausalityType(b *Builder, c model.CausalityType) {
	b.WriteU8(uint8(c))
}

func readCausalityType(r *Reader, variableID int32) (model.CausalityType, error) {
	v, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	if v > uint8(model.Output) {
		return 0, errors.CodecVariable(errors.KindInvalidEnum, variableID, "unknown CausalityType value")
	}
	return model.CausalityType(v), nil
}

func writeStatus(b *Builder, s model.Status) {
	b.WriteU8(uint8(s))
}

func readStatus(r *Reader) (model.Status, error) {
	v, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	if v > uint8(model.StatusFatal) {
		return 0, errors.Codec(errors.KindInvalidEnum, "unknown Status value")
	}
	return model.Status(v), nil
}

func writeVariableValue(b *Builder, vv model.VariableValue) {
	b.WriteF64(vv.RealVal)
	b.WriteI32(vv.IntVal)
	b.WriteBool(vv.BoolVal)
	b.WriteString(vv.StringVal)
}

func readVariableValue(r *Reader) (model.VariableValue, error) {
	var vv model.VariableValue
	var err error
	if vv.RealVal, err = r.ReadF64(); err != nil {
		return vv, err
	}
	if vv.IntVal, err = r.ReadI32(); err != nil {
		return vv, err
	}
	if vv.BoolVal, err = r.ReadBool(); err != nil {
		return vv, err
	}
	if vv.StringVal, err = r.ReadString(); err != nil {
		return vv, err
	}
	return vv, nil
}
