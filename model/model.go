// Package model holds the host-side domain types exchanged with a dtasm
// guest: the model description a module publishes, the typed variable
// values that flow in and out of it, and the status/log-level enums used
// on the wire.
package model

// VariableType is the wire-level type tag of a Variable's value.
type VariableType uint8

const (
	Real VariableType = iota
	Int
	Bool
	String
)

func (t VariableType) String() string {
	switch t {
	case Real:
		return "Real"
	case Int:
		return "Int"
	case Bool:
		return "Bool"
	case String:
		return "String"
	default:
		return "Unknown"
	}
}

// CausalityType is the role a Variable plays in the model interface.
type CausalityType uint8

const (
	Local CausalityType = iota
	Parameter
	Input
	Output
)

func (c CausalityType) String() string {
	switch c {
	case Local:
		return "Local"
	case Parameter:
		return "Parameter"
	case Input:
		return "Input"
	case Output:
		return "Output"
	default:
		return "Unknown"
	}
}

// VariableValue carries all four typed slots regardless of the owning
// Variable's declared type; only the slot matching ValueType is meaningful.
// This mirrors the wire shape used by the dpend_rs/dpend_cpp reference
// guests so a single struct can serve as a Variable's default value.
type VariableValue struct {
	RealVal   float64
	IntVal    int32
	BoolVal   bool
	StringVal string
}

// Variable describes one variable of a model, as published by the guest's
// ModelDescription.
type Variable struct {
	ID             int32
	Name           string
	Description    string
	Unit           string
	ValueType      VariableType
	Causality      CausalityType
	DerivativeOfID int32 // 0 means "none"
	Default        *VariableValue
}

// Capabilities is the guest's declared optimization/feature support triple.
type Capabilities struct {
	CanHandleVariableStepSize bool
	CanResetStep              bool
	CanInterpolateInputs      bool
}

// ModelInfo is the non-variable metadata of a ModelDescription.
type ModelInfo struct {
	ID                 string
	Name               string
	Description        string
	GenerationTool     string
	GenerationDateTime string
	NameDelimiter      string
	Capabilities       Capabilities
}

// ExperimentInfo carries the guest's suggested simulation parameters.
// Present only when the guest's description sets has_experiment=true.
type ExperimentInfo struct {
	TimeStepMin      float64
	TimeStepMax      float64
	TimeStepDefault  float64
	StartTimeDefault float64
	EndTimeDefault   float64
	TimeUnit         string
}

// ModelDescription is the self-describing schema a guest publishes once;
// it is immutable after load and cached verbatim by the Runtime (spec
// invariant I4).
type ModelDescription struct {
	Model      ModelInfo
	Variables  []Variable
	Experiment *ExperimentInfo
}

// VarValues is a bundle of variable values keyed by id, one map per value
// type. Order within a bundle is not observable; a given id must appear in
// at most one of the four maps.
type VarValues struct {
	Real   map[int32]float64
	Int    map[int32]int32
	Bool   map[int32]bool
	String map[int32]string
}

// NewVarValues returns an empty, ready-to-use bundle.
func NewVarValues() VarValues {
	return VarValues{
		Real:   make(map[int32]float64),
		Int:    make(map[int32]int32),
		Bool:   make(map[int32]bool),
		String: make(map[int32]string),
	}
}

// Len returns the total number of (id, value) pairs across all four maps.
func (v VarValues) Len() int {
	return len(v.Real) + len(v.Int) + len(v.Bool) + len(v.String)
}

// Status is the wire-level outcome of a call into the guest.
type Status uint8

const (
	StatusOK Status = iota
	StatusWarning
	StatusDiscard
	StatusError
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusDiscard:
		return "Discard"
	case StatusError:
		return "Error"
	case StatusFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// LogLevel is the guest-side log verbosity requested at initialize time.
type LogLevel uint8

const (
	LogInfo LogLevel = iota
	LogWarn
	LogError
)

// GetValuesResponse is the decoded result of a getValues call.
type GetValuesResponse struct {
	Status      Status
	CurrentTime float64
	Values      VarValues
}

// DoStepResponse is the decoded result of a doStep call.
type DoStepResponse struct {
	Status      Status
	UpdatedTime float64
}
