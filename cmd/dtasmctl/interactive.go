package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/siemens/dtasm/codec"
	"github.com/siemens/dtasm/environment"
	"github.com/siemens/dtasm/model"
	"github.com/siemens/dtasm/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	varStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type stepModel int

const (
	stateLoading stepModel = iota
	stateFresh
	stateStepping
	stateSetValue
)

type interactiveModel struct {
	err      error
	filename string
	bufSize  uint32

	env *environment.Environment
	rt  *runtime.Runtime
	dsc model.ModelDescription

	state stepModel
	dt    float64
	lastT float64

	setInput textinput.Model
}

func newInteractiveModel(filename string, bufSize uint32) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "id=value"
	ti.Prompt = "set: "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		bufSize:  bufSize,
		state:    stateLoading,
		dt:       0.01,
		setInput: ti,
	}
}

type loadedMsg struct {
	err error
	env *environment.Environment
	rt  *runtime.Runtime
	dsc model.ModelDescription
}

type initializedMsg struct{ err error }

type steppedMsg struct {
	err error
	t   float64
}

type setValuesMsg struct{ err error }

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	env, err := environment.New(ctx, 0)
	if err != nil {
		return loadedMsg{err: err}
	}

	mod, err := env.LoadModule(ctx, data)
	if err != nil {
		env.Close(ctx)
		return loadedMsg{err: err}
	}

	rt, err := env.CreateRuntime(ctx, mod, m.bufSize)
	if err != nil {
		env.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{env: env, rt: rt, dsc: rt.GetModelDescription()}
}

func (m *interactiveModel) initialize() tea.Msg {
	ctx := context.Background()
	_, err := m.rt.Initialize(ctx, codec.InitArgs{
		ModelID:  m.dsc.Model.ID,
		LogLevel: model.LogInfo,
	})
	return initializedMsg{err: err}
}

func (m *interactiveModel) step() tea.Msg {
	ctx := context.Background()
	res, err := m.rt.DoStep(ctx, m.lastT, m.dt)
	if err != nil {
		return steppedMsg{err: err}
	}
	return steppedMsg{t: res.UpdatedTime}
}

func (m *interactiveModel) applySetValue(raw string) tea.Msg {
	ctx := context.Background()
	values, err := parseSetArg(raw)
	if err != nil {
		return setValuesMsg{err: err}
	}
	_, err = m.rt.SetValues(ctx, values)
	return setValuesMsg{err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateSetValue {
				break
			}
			ctx := context.Background()
			if m.rt != nil {
				m.rt.Close(ctx)
			}
			if m.env != nil {
				m.env.Close(ctx)
			}
			return m, tea.Quit

		case "enter":
			switch m.state {
			case stateFresh:
				return m, m.initialize
			case stateStepping:
				return m, m.step
			case stateSetValue:
				raw := m.setInput.Value()
				m.setInput.SetValue("")
				m.state = stateStepping
				return m, func() tea.Msg { return m.applySetValue(raw) }
			}

		case "s":
			if m.state == stateStepping {
				m.state = stateSetValue
				m.setInput.Focus()
				return m, nil
			}

		case "esc":
			if m.state == stateSetValue {
				m.state = stateStepping
				m.setInput.Blur()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.env, m.rt, m.dsc = msg.env, msg.rt, msg.dsc
		if m.dsc.Experiment != nil {
			m.dt = m.dsc.Experiment.TimeStepDefault
		}
		m.state = stateFresh

	case initializedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state = stateStepping

	case steppedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.lastT = msg.t
		}

	case setValuesMsg:
		m.err = msg.err
	}

	if m.state == stateSetValue {
		var cmd tea.Cmd
		m.setInput, cmd = m.setInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("dtasm step"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if m.state == stateLoading {
		b.WriteString("Loading module...")
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "%s\ncurrent time: %v\n\n", varStyle.Render(m.dsc.Model.Name), m.lastT)

	if m.state != stateFresh {
		res, err := m.rt.GetValues(context.Background(), readableIDs(m.dsc))
		if err == nil {
			for _, v := range m.dsc.Variables {
				if v.Causality == model.Input {
					continue
				}
				b.WriteString("  ")
				b.WriteString(varStyle.Render(v.Name))
				b.WriteString(" = ")
				b.WriteString(formatValue(v, res.Values))
				b.WriteString(" ")
				b.WriteString(typeStyle.Render(v.ValueType.String()))
				b.WriteString("\n")
			}
		}
	} else {
		for _, v := range m.dsc.Variables {
			b.WriteString("  ")
			b.WriteString(varStyle.Render(v.Name))
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(v.ValueType.String() + "/" + v.Causality.String()))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch m.state {
	case stateFresh:
		b.WriteString(helpStyle.Render("enter initialize • q quit"))
	case stateStepping:
		b.WriteString(helpStyle.Render(fmt.Sprintf("enter step (dt=%v) • s set values • q quit", m.dt)))
	case stateSetValue:
		b.WriteString(m.setInput.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	}

	return b.String()
}

func readableIDs(d model.ModelDescription) []int32 {
	var ids []int32
	for _, v := range d.Variables {
		if v.Causality != model.Input {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func formatValue(v model.Variable, values model.VarValues) string {
	switch v.ValueType {
	case model.Real:
		return strconv.FormatFloat(values.Real[v.ID], 'g', -1, 64)
	case model.Int:
		return strconv.FormatInt(int64(values.Int[v.ID]), 10)
	case model.Bool:
		return strconv.FormatBool(values.Bool[v.ID])
	case model.String:
		return values.String[v.ID]
	default:
		return ""
	}
}

func runInteractive(filename string, bufSize uint32) error {
	p := tea.NewProgram(newInteractiveModel(filename, bufSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
