package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"layercheck/internal/config"
	"layercheck/internal/contract"
)

func newInitCmd() *cobra.Command {
	var output, pkg, layers string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter contract file",
		Long: `Write a starter contract file with one layers contract and one forbidden
contract that keeps the lowest layer from importing any higher one.

The root package and the layer names (highest first, comma separated) are
taken from --package and --layers, or asked for interactively. An existing
file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var questions []question
			if pkg == "" {
				questions = append(questions, question{key: "package", prompt: "Root package (e.g. app)"})
			}
			if layers == "" {
				questions = append(questions, question{key: "layers", prompt: "Layers, highest first (e.g. entrypoints,services,adapters,models)"})
			}
			if len(questions) > 0 {
				answers, err := promptQuestions(questions, cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if v, ok := answers["package"]; ok {
					pkg = v
				}
				if v, ok := answers["layers"]; ok {
					layers = v
				}
			}

			f, err := starterConfig(pkg, splitList(layers))
			if err != nil {
				return err
			}
			if err := writeNew(output, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d contracts\n", output, len(f.Contracts))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultFile, "file to create")
	cmd.Flags().StringVar(&pkg, "package", "", "root package name")
	cmd.Flags().StringVar(&layers, "layers", "", "comma separated layer names, highest first")
	return cmd
}

// starterConfig builds a validated contract file for pkg with the given
// layers, highest first.
func starterConfig(pkg string, layers []string) (*contract.File, error) {
	if pkg == "" {
		return nil, &contract.ConfigError{Msg: "root package is required"}
	}
	if len(layers) < 2 {
		return nil, &contract.ConfigError{Msg: fmt.Sprintf("need at least 2 layers, got %d", len(layers))}
	}
	patterns := make([]string, len(layers))
	for i, l := range layers {
		patterns[i] = pkg + "." + l + ".*"
	}
	lowest := layers[len(layers)-1]
	f := &contract.File{
		Exclude: []string{"**/tests/**"},
		Contracts: []contract.Spec{
			{
				Name:   pkg + " layers",
				Type:   string(contract.KindLayers),
				Layers: patterns,
			},
			{
				Name:               pkg + "." + lowest + " is independent",
				Type:               string(contract.KindForbidden),
				SourceModules:      patterns[len(patterns)-1:],
				DestinationModules: patterns[:len(patterns)-1],
			},
		},
	}
	if _, err := f.Build(); err != nil {
		return nil, err
	}
	return f, nil
}

// writeNew creates path with f's YAML, failing if path exists.
func writeNew(path string, f *contract.File) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists; not overwriting", path)
		}
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

type question struct {
	key    string
	prompt string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.prompt
		ti.CharLimit = 256
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

func (m promptModel) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		out[q.key] = m.inputs[i].Value()
	}
	return out
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []question, in io.Reader, out io.Writer) (map[string]string, error) {
	p := tea.NewProgram(newPromptModel(questions), tea.WithInput(in), tea.WithOutput(out))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	return final.answers(), nil
}
