package contract

// config.go: the contract configuration file.
//
// The file is YAML; JSON input works as well since YAML is a superset.
// Unknown keys are rejected so that typos fail loudly instead of silently
// disabling a rule.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration.
type File struct {
	Root      string   `yaml:"root,omitempty" json:"root,omitempty"`
	Include   []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude   []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Contracts []Spec   `yaml:"contracts" json:"contracts"`
}

// Spec is one contract record as written in the file.
type Spec struct {
	Name               string   `yaml:"name" json:"name"`
	Type               string   `yaml:"type" json:"type"`
	SourceModules      []string `yaml:"source_modules,omitempty" json:"source_modules,omitempty"`
	DestinationModules []string `yaml:"destination_modules,omitempty" json:"destination_modules,omitempty"`
	IgnoreImports      []string `yaml:"ignore_imports,omitempty" json:"ignore_imports,omitempty"`
	Order              string   `yaml:"order,omitempty" json:"order,omitempty"`
	Layers             []string `yaml:"layers,omitempty" json:"layers,omitempty"`
}

// ConfigError is fatal: the configuration cannot be used.
type ConfigError struct {
	Path     string // file, when known
	Contract string // contract name, when known
	Msg      string
	Err      error // underlying cause, when there is one
}

func (e *ConfigError) Error() string {
	var b bytes.Buffer
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Contract != "" {
		fmt.Fprintf(&b, ": contract %q", e.Contract)
	}
	b.WriteString(": " + e.Msg)
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error(), Err: err}
	}
	f, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse decodes a configuration document.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Msg: "empty configuration"}
		}
		return nil, &ConfigError{Msg: err.Error()}
	}
	return &f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("contract: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("contract: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Build validates every contract record and returns contracts in declaration order.
// All problems are reported together.
func (f *File) Build() ([]Contract, error) {
	if len(f.Contracts) == 0 {
		return nil, &ConfigError{Msg: "no contracts declared"}
	}
	var errs []error
	var out []Contract
	names := make(map[string]bool)
	for i, s := range f.Contracts {
		if s.Name == "" {
			errs = append(errs, &ConfigError{Msg: fmt.Sprintf("contract #%d has no name", i+1)})
			continue
		}
		if names[s.Name] {
			errs = append(errs, &ConfigError{Contract: s.Name, Msg: "duplicate contract name"})
			continue
		}
		names[s.Name] = true
		c, err := s.build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (s Spec) build() (Contract, error) {
	fail := func(format string, args ...any) error {
		return &ConfigError{Contract: s.Name, Msg: fmt.Sprintf(format, args...)}
	}
	switch Kind(s.Type) {
	case KindForbidden:
		if len(s.SourceModules) == 0 {
			return nil, fail("source_modules must not be empty")
		}
		if len(s.DestinationModules) == 0 {
			return nil, fail("destination_modules must not be empty")
		}
		if len(s.Layers) > 0 || s.Order != "" {
			return nil, fail("layers/order are not valid for a forbidden contract")
		}
		src, err := parsePatterns(s.SourceModules)
		if err != nil {
			return nil, fail("source_modules: %v", err)
		}
		dst, err := parsePatterns(s.DestinationModules)
		if err != nil {
			return nil, fail("destination_modules: %v", err)
		}
		var ignore []ImportRule
		for _, raw := range s.IgnoreImports {
			r, err := ParseImportRule(raw)
			if err != nil {
				return nil, fail("ignore_imports: %v", err)
			}
			ignore = append(ignore, r)
		}
		return NewForbidden(s.Name, src, dst, ignore...), nil

	case KindLayers:
		if len(s.Layers) < 2 {
			return nil, fail("a layers contract needs at least 2 layers, got %d", len(s.Layers))
		}
		if len(s.SourceModules) > 0 || len(s.DestinationModules) > 0 || len(s.IgnoreImports) > 0 {
			return nil, fail("source_modules/destination_modules/ignore_imports are not valid for a layers contract")
		}
		order := Order(s.Order)
		switch order {
		case "":
			order = HighToLow
		case HighToLow, LowToHigh:
		default:
			return nil, fail("order must be %q or %q, got %q", HighToLow, LowToHigh, s.Order)
		}
		pats, err := parsePatterns(s.Layers)
		if err != nil {
			return nil, fail("layers: %v", err)
		}
		seen := make(map[string]bool)
		for _, p := range pats {
			if seen[p.String()] {
				return nil, fail("layer %q listed twice", p.String())
			}
			seen[p.String()] = true
		}
		return NewLayers(s.Name, order, pats), nil

	case "":
		return nil, fail("missing type")
	default:
		return nil, fail("unknown type %q (want %q or %q)", s.Type, KindForbidden, KindLayers)
	}
}
