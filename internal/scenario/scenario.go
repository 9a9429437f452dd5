// Package scenario loads the scripted timelines replayed by the demo CLI.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultResolution is the replay clock step used when a scenario sets none.
const DefaultResolution = 10 * time.Millisecond

// Scenario is one scripted demo session: keystrokes fed to the debounce and
// throttle pages, and actions dispatched to the reducer page.
type Scenario struct {
	Name       string         `yaml:"name"`
	Resolution Duration       `yaml:"resolution"`
	Debounce   DebounceConfig `yaml:"debounce"`
	Throttle   ThrottleConfig `yaml:"throttle"`
	Input      []Keystroke    `yaml:"input"`
	Actions    []Action       `yaml:"actions"`
}

type DebounceConfig struct {
	Delay Duration `yaml:"delay"`
}

type ThrottleConfig struct {
	Delay    Duration `yaml:"delay"`
	Leading  *bool    `yaml:"leading"`
	Trailing *bool    `yaml:"trailing"`
}

// Edges returns the configured edges; unset edges default to enabled.
func (c ThrottleConfig) Edges() (leading, trailing bool) {
	leading, trailing = true, true
	if c.Leading != nil {
		leading = *c.Leading
	}
	if c.Trailing != nil {
		trailing = *c.Trailing
	}
	return leading, trailing
}

// Keystroke sets the input text at an offset from the start of the replay.
type Keystroke struct {
	At   Duration `yaml:"at"`
	Text string   `yaml:"text"`
}

// Action is dispatched to the reducer page.
type Action struct {
	Type    string `yaml:"type"`
	Payload string `yaml:"payload,omitempty"`
}

// Default returns the built-in search box session: a quick burst of typing,
// a pause, a second burst, and a few counter and todo actions.
func Default() *Scenario {
	sc := &Scenario{
		Name:       "search-box",
		Resolution: Duration(DefaultResolution),
		Debounce:   DebounceConfig{Delay: Duration(time.Second)},
		Throttle:   ThrottleConfig{Delay: Duration(time.Second)},
		Input: []Keystroke{
			{At: ms(0), Text: "h"},
			{At: ms(150), Text: "he"},
			{At: ms(300), Text: "hel"},
			{At: ms(450), Text: "hell"},
			{At: ms(600), Text: "hello"},
			{At: ms(2500), Text: "hello w"},
			{At: ms(2700), Text: "hello wo"},
		},
		Actions: []Action{
			{Type: "INC"},
			{Type: "INC"},
			{Type: "ADD_TODO", Payload: "write docs"},
			{Type: "DEC"},
			{Type: "UNKNOWN"},
			{Type: "RESET"},
		},
	}
	return sc
}

func ms(n int) Duration {
	return Duration(time.Duration(n) * time.Millisecond)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario strictly: unknown fields are rejected.
// Defaults are applied and the result is validated.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario is empty")
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) applyDefaults() {
	if s.Name == "" {
		s.Name = "unnamed"
	}
	if s.Resolution == 0 {
		s.Resolution = Duration(DefaultResolution)
	}
	sort.SliceStable(s.Input, func(i, j int) bool {
		return s.Input[i].At < s.Input[j].At
	})
}

// Validate checks delays, offsets and actions.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Resolution <= 0 {
		errs = append(errs, fmt.Errorf("resolution must be > 0, got %s", s.Resolution))
	}
	if s.Debounce.Delay < 0 {
		errs = append(errs, fmt.Errorf("debounce.delay must be >= 0, got %s", s.Debounce.Delay))
	}
	if s.Throttle.Delay < 0 {
		errs = append(errs, fmt.Errorf("throttle.delay must be >= 0, got %s", s.Throttle.Delay))
	}
	for i, k := range s.Input {
		if k.At < 0 {
			errs = append(errs, fmt.Errorf("input[%d].at must be >= 0, got %s", i, k.At))
		}
	}
	for i, a := range s.Actions {
		if a.Type == "" {
			errs = append(errs, fmt.Errorf("actions[%d].type is required", i))
		}
	}
	return errors.Join(errs...)
}
