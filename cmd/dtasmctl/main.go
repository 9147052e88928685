package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/siemens/dtasm/codec"
	"github.com/siemens/dtasm/environment"
	"github.com/siemens/dtasm/model"
	"github.com/siemens/dtasm/runtime"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to a dtasm guest .wasm file")
		bufSize     = flag.Uint("bufsize", 0, "Scratch region size in bytes (0 = default)")
		steps       = flag.Int("steps", 10, "Number of fixed-size steps to run")
		dt          = flag.Float64("dt", 0.01, "Step size, in the model's time unit")
		setArg      = flag.String("set", "", "Initial parameter/input values: id=value,id=value (real; use id=b:true for bool, id=s:text for string)")
		list        = flag.Bool("list", false, "Print the model description and exit")
		snapshotOut = flag.String("snapshot", "", "Save a state snapshot to this path after stepping and exit")
		restoreIn   = flag.String("restore", "", "Restore a state snapshot from this path before stepping")
		interactive = flag.Bool("i", false, "Interactive stepping TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: dtasmctl -wasm <file.wasm> [-list] [-steps N] [-dt seconds] [-set id=v,...]")
		fmt.Fprintln(os.Stderr, "       dtasmctl -wasm <file.wasm> -snapshot out.bin")
		fmt.Fprintln(os.Stderr, "       dtasmctl -wasm <file.wasm> -restore in.bin -steps N")
		fmt.Fprintln(os.Stderr, "       dtasmctl -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*wasmFile, uint32(*bufSize)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(runOpts{
		wasmFile:    *wasmFile,
		bufSize:     uint32(*bufSize),
		steps:       *steps,
		dt:          *dt,
		setArg:      *setArg,
		listOnly:    *list,
		snapshotOut: *snapshotOut,
		restoreIn:   *restoreIn,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runOpts struct {
	wasmFile    string
	bufSize     uint32
	steps       int
	dt          float64
	setArg      string
	listOnly    bool
	snapshotOut string
	restoreIn   string
}

func run(opts runOpts) error {
	ctx := context.Background()

	data, err := os.ReadFile(opts.wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	env, err := environment.New(ctx, 0)
	if err != nil {
		return fmt.Errorf("create environment: %w", err)
	}
	defer env.Close(ctx)

	mod, err := env.LoadModule(ctx, data)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	rt, err := env.CreateRuntime(ctx, mod, opts.bufSize)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	desc := rt.GetModelDescription()
	printDescription(desc)
	if opts.listOnly {
		return nil
	}

	initValues, err := parseSetArg(opts.setArg)
	if err != nil {
		return fmt.Errorf("parse -set: %w", err)
	}

	if opts.restoreIn != "" {
		snapshot, err := os.ReadFile(opts.restoreIn)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if err := rt.LoadState(ctx, snapshot); err != nil {
			return fmt.Errorf("load_state: %w", err)
		}
		fmt.Printf("restored state from %s\n", opts.restoreIn)
	} else {
		status, err := rt.Initialize(ctx, codec.InitArgs{
			ModelID:    desc.Model.ID,
			Tmin:       0,
			LogLevel:   model.LogInfo,
			InitValues: initValues,
		})
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		fmt.Printf("initialize: status=%s\n", status)
	}

	t := rt.CurrentTime()
	for i := 0; i < opts.steps; i++ {
		res, err := rt.DoStep(ctx, t, opts.dt)
		if err != nil {
			return fmt.Errorf("do_step %d: %w", i, err)
		}
		t = res.UpdatedTime
		fmt.Printf("step %d: t=%.6f status=%s\n", i, t, res.Status)
	}

	printOutputs(ctx, rt, desc)

	if opts.snapshotOut != "" {
		snapshot, err := rt.SaveState(ctx)
		if err != nil {
			return fmt.Errorf("save_state: %w", err)
		}
		if err := os.WriteFile(opts.snapshotOut, snapshot, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Printf("saved state to %s (%d bytes)\n", opts.snapshotOut, len(snapshot))
	}

	return nil
}

func printDescription(d model.ModelDescription) {
	fmt.Printf("Model: %s (%s)\n", d.Model.Name, d.Model.ID)
	if d.Model.Description != "" {
		fmt.Printf("  %s\n", d.Model.Description)
	}
	fmt.Printf("Variables:\n")
	for _, v := range d.Variables {
		fmt.Printf("  [%d] %-16s %-8s %-10s\n", v.ID, v.Name, v.ValueType, v.Causality)
	}
	if d.Experiment != nil {
		fmt.Printf("Experiment: tmin=%v tmax=%v dt=%v unit=%s\n",
			d.Experiment.StartTimeDefault, d.Experiment.EndTimeDefault,
			d.Experiment.TimeStepDefault, d.Experiment.TimeUnit)
	}
	fmt.Println()
}

func printOutputs(ctx context.Context, rt *runtime.Runtime, d model.ModelDescription) {
	var ids []int32
	for _, v := range d.Variables {
		if v.Causality != model.Input {
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	res, err := rt.GetValues(ctx, ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get_values: %v\n", err)
		return
	}
	fmt.Println("final values:")
	for _, v := range d.Variables {
		printValue(v, res.Values)
	}
}

func printValue(v model.Variable, values model.VarValues) {
	switch v.ValueType {
	case model.Real:
		if val, ok := values.Real[v.ID]; ok {
			fmt.Printf("  %s = %v\n", v.Name, val)
		}
	case model.Int:
		if val, ok := values.Int[v.ID]; ok {
			fmt.Printf("  %s = %v\n", v.Name, val)
		}
	case model.Bool:
		if val, ok := values.Bool[v.ID]; ok {
			fmt.Printf("  %s = %v\n", v.Name, val)
		}
	case model.String:
		if val, ok := values.String[v.ID]; ok {
			fmt.Printf("  %s = %q\n", v.Name, val)
		}
	}
}

// parseSetArg parses "id=value,id=value" pairs into a VarValues bundle.
// A value of the form "b:true"/"b:false" is parsed as bool, "s:text" as
// string; anything else is parsed as a real number.
func parseSetArg(s string) (model.VarValues, error) {
	values := model.NewVarValues()
	if s == "" {
		return values, nil
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return values, fmt.Errorf("malformed pair %q", pair)
		}
		id, err := strconv.ParseInt(kv[0], 10, 32)
		if err != nil {
			return values, fmt.Errorf("bad variable id %q: %w", kv[0], err)
		}
		val := kv[1]
		switch {
		case strings.HasPrefix(val, "b:"):
			values.Bool[int32(id)] = val[2:] == "true"
		case strings.HasPrefix(val, "s:"):
			values.String[int32(id)] = val[2:]
		default:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return values, fmt.Errorf("bad value %q for variable %d: %w", val, id, err)
			}
			values.Real[int32(id)] = f
		}
	}
	return values, nil
}
