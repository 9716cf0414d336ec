package scenario

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/pkg/observe"
)

// Scenario is a scripted sequence of array operations.
type Scenario struct {
	// Name describes the scenario in output.
	Name string `yaml:"name"`

	// Initial is the starting content of the array.
	Initial []any `yaml:"initial"`

	// Throttle, if set, throttles the array's change notifications.
	Throttle time.Duration `yaml:"-"`

	// Steps are the operations to replay, in order.
	Steps []Step `yaml:"steps"`

	// path and source are kept for error locations.
	path   string
	source []byte
}

// Step is one operation with its arguments.
type Step struct {
	Op   string `yaml:"op"`
	Args []any  `yaml:"args"`

	// Line and Column locate the step in its file; zero if unknown.
	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// UnmarshalYAML decodes a step and records where it starts.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type plain Step
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Line = value.Line
	s.Column = value.Column
	// Point at the op value when there is one.
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "op" {
			s.Line = value.Content[i+1].Line
			s.Column = value.Content[i+1].Column
		}
	}
	return nil
}

// String returns the step in "op(args)" form.
func (s Step) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = formatValue(a)
	}
	return s.Op + "(" + strings.Join(parts, ", ") + ")"
}

// rawScenario mirrors the file layout before validation.
type rawScenario struct {
	Name     string `yaml:"name"`
	Initial  []any  `yaml:"initial"`
	Throttle string `yaml:"throttle"`
	Steps    []Step `yaml:"steps"`
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("O010").
			Wrap(err).
			WithSuggestion("Check the path passed to 'observe run'")
	}
	return Parse(path, data)
}

// yamlLine matches the line number in yaml.v3 error messages.
var yamlLine = regexp.MustCompile(`line (\d+)`)

// Parse parses and validates scenario data. name is used in error
// locations.
func Parse(name string, data []byte) (*Scenario, error) {
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		oe := errors.New("O011").Wrap(err)
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			oe.WithSource(name, data, line, 0)
		}
		return nil, oe
	}

	s := &Scenario{
		Name:    raw.Name,
		Initial: raw.Initial,
		Steps:   raw.Steps,
		path:    name,
		source:  data,
	}
	if s.Initial == nil {
		s.Initial = []any{}
	}
	if err := CheckScalars(s.Initial); err != nil {
		return nil, errors.New("O013").
			Wrap(err).
			WithSuggestion("initial must be a flat list of scalars")
	}

	if raw.Throttle != "" {
		d, err := time.ParseDuration(raw.Throttle)
		if err != nil || d < 0 {
			oe := errors.New("O014").WithExample("throttle: 50ms")
			if err != nil {
				oe.Wrap(err)
			}
			return nil, oe
		}
		s.Throttle = d
	}

	for _, step := range s.Steps {
		if err := s.validate(step); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// validate checks a step against the operation table without running it.
func (s *Scenario) validate(step Step) error {
	if _, ok := ops[step.Op]; !ok {
		return s.stepError("O012", step, fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)).
			WithSuggestion("Use one of: " + strings.Join(Ops(), ", "))
	}
	if err := CheckScalars(step.Args); err != nil {
		return s.stepError("O013", step, err)
	}
	// Dry run against a scratch array to catch arity and type errors.
	if _, err := Apply(observe.NewObservableArray(s.Initial), step.Op, step.Args); err != nil {
		return s.stepError("O013", step, err)
	}
	return nil
}

// stepError builds a coded error located at step.
func (s *Scenario) stepError(code string, step Step, err error) *errors.ObserveError {
	oe := errors.New(code).Wrap(err)
	if step.Line > 0 {
		oe.WithSource(s.path, s.source, step.Line, step.Column)
	}
	return oe
}
