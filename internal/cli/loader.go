package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// TransitionFile is the on-disk form of a proposed transition.
//
// Buffers are hex, with or without 0x. Inputs defaults to 1. Outputs
// defaults to 1 when successor buffers are present and 0 otherwise.
//
//	old_config: 0x...
//	old_state: 0x...
//	new_config: 0x...
//	new_state: 0x...
//	credentials: [0x...]
//	time_refs: [150]
type TransitionFile struct {
	OldConfig   string   `yaml:"old_config"`
	OldState    string   `yaml:"old_state"`
	NewConfig   string   `yaml:"new_config,omitempty"`
	NewState    string   `yaml:"new_state,omitempty"`
	Credentials []string `yaml:"credentials,omitempty"`
	TimeRefs    []uint64 `yaml:"time_refs"`
	Inputs      *int     `yaml:"inputs,omitempty"`
	Outputs     *int     `yaml:"outputs,omitempty"`
}

// LoadError represents an error that occurred while loading CLI input.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTransition reads a transition file. Unknown fields are rejected.
func LoadTransition(path string) (*engine.Transition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("transition file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading transition file: %v", err)}
	}
	return ParseTransition(data)
}

// ParseTransition decodes transition YAML from memory.
func ParseTransition(data []byte) (*engine.Transition, error) {
	var f TransitionFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeTransition, Message: fmt.Sprintf("parsing transition: %v", err)}
	}
	return f.Transition()
}

// Transition converts the file form into an engine transition.
// Buffer widths are not checked here; the validator reports them.
func (f TransitionFile) Transition() (*engine.Transition, error) {
	if f.OldConfig == "" || f.OldState == "" {
		return nil, &LoadError{Code: ErrCodeTransition, Message: "old_config and old_state are required"}
	}

	t := &engine.Transition{
		TimeRefs: append([]uint64(nil), f.TimeRefs...),
		Inputs:   1,
	}
	for _, b := range []struct {
		field string
		hex   string
		dst   *[]byte
	}{
		{"old_config", f.OldConfig, &t.OldConfig},
		{"old_state", f.OldState, &t.OldState},
		{"new_config", f.NewConfig, &t.NewConfig},
		{"new_state", f.NewState, &t.NewState},
	} {
		raw, err := layout.ParseHex(b.hex)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeTransition, Message: fmt.Sprintf("%s: %v", b.field, err)}
		}
		*b.dst = raw
	}

	for i, c := range f.Credentials {
		h, err := ir.ParseHash32(c)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeTransition, Message: fmt.Sprintf("credentials[%d]: %v", i, err)}
		}
		t.Credentials = append(t.Credentials, h)
	}

	if t.NewConfig != nil || t.NewState != nil {
		t.Outputs = 1
	}
	if f.Inputs != nil {
		t.Inputs = *f.Inputs
	}
	if f.Outputs != nil {
		t.Outputs = *f.Outputs
	}
	return t, nil
}
