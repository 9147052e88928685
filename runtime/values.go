package runtime

import (
	"github.com/siemens/dtasm/errors"
	"github.com/siemens/dtasm/model"
)

// varInfo is the subset of a Variable the Runtime needs to validate
// requests against, extracted once from the cached ModelDescription.
type varInfo struct {
	valueType model.VariableType
	causality model.CausalityType
}

func collectVarTypes(d model.ModelDescription) map[int32]varInfo {
	types := make(map[int32]varInfo, len(d.Variables))
	for _, v := range d.Variables {
		types[v.ID] = varInfo{valueType: v.ValueType, causality: v.Causality}
	}
	return types
}

// checkKnownType verifies id is declared and has the expected value type,
// the validation initialize performs on its initial-value bundle.
func checkKnownType(types map[int32]varInfo, id int32, want model.VariableType) error {
	info, ok := types[id]
	if !ok {
		return errors.CodecVariable(errors.KindInvalidData, id, "unknown variable id")
	}
	if info.valueType != want {
		return errors.CodecVariable(errors.KindInvalidData, id, "variable type mismatch")
	}
	return nil
}

func validateInitValues(types map[int32]varInfo, v model.VarValues) error {
	for id := range v.Real {
		if err := checkKnownType(types, id, model.Real); err != nil {
			return err
		}
	}
	for id := range v.Int {
		if err := checkKnownType(types, id, model.Int); err != nil {
			return err
		}
	}
	for id := range v.Bool {
		if err := checkKnownType(types, id, model.Bool); err != nil {
			return err
		}
	}
	for id := range v.String {
		if err := checkKnownType(types, id, model.String); err != nil {
			return err
		}
	}
	return nil
}

// writable reports whether a variable of the given causality may be
// targeted by set_values: spec §8 P4 names {Parameter, Input}.
func writable(c model.CausalityType) bool {
	return c == model.Parameter || c == model.Input
}

func checkWritable(types map[int32]varInfo, id int32, want model.VariableType) error {
	info, ok := types[id]
	if !ok {
		return errors.CodecVariable(errors.KindInvalidData, id, "unknown variable id")
	}
	if !writable(info.causality) {
		return errors.CodecVariable(errors.KindInvalidEnum, id, "variable is not writable (causality must be Parameter or Input)")
	}
	if info.valueType != want {
		return errors.CodecVariable(errors.KindInvalidData, id, "variable type mismatch")
	}
	return nil
}

func validateSetValues(types map[int32]varInfo, v model.VarValues) error {
	for id := range v.Real {
		if err := checkWritable(types, id, model.Real); err != nil {
			return err
		}
	}
	for id := range v.Int {
		if err := checkWritable(types, id, model.Int); err != nil {
			return err
		}
	}
	for id := range v.Bool {
		if err := checkWritable(types, id, model.Bool); err != nil {
			return err
		}
	}
	for id := range v.String {
		if err := checkWritable(types, id, model.String); err != nil {
			return err
		}
	}
	return nil
}

// validateGetValues rejects ids the description does not declare. Every
// declared variable is readable, whatever its causality, so values written
// by set_values (Parameters and Inputs alike) can be read back.
func validateGetValues(types map[int32]varInfo, ids []int32) error {
	for _, id := range ids {
		if _, ok := types[id]; !ok {
			return errors.CodecVariable(errors.KindInvalidData, id, "unknown variable id")
		}
	}
	return nil
}
