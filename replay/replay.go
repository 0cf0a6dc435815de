// Package replay drives a form from a recorded list of host UI events and
// collects the resulting states and submissions. It backs the `goform
// replay` command and doubles as a harness for end-to-end tests of form
// definitions.
package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/formdef"
	"github.com/reoring/goform/tree"
)

// Event types understood by Run.
const (
	TypeFocus       = "focus"
	TypeBlur        = "blur"
	TypeChange      = "change"
	TypePointerDown = "pointerdown"
	TypeSubmit      = "submit"
	TypeValidate    = "validate"
	TypeFlush       = "flush"
)

// ErrUnknownEvent is returned for an event type Run does not know.
var ErrUnknownEvent = errors.New("replay: unknown event type")

// Event is one host notification. Control names are resolved through the
// form definition, so sub-controls get their owning field automatically.
type Event struct {
	Type    string   `yaml:"type" json:"type"`
	Control string   `yaml:"control,omitempty" json:"control,omitempty"`
	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Value   any      `yaml:"value,omitempty" json:"value,omitempty"`
	Fields  []string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Frame is the read view captured after a flush.
type Frame struct {
	Step    int         `json:"step"`
	Event   string      `json:"event"`
	Version uint64      `json:"version"`
	View    goform.View `json:"view"`
}

// Result collects everything a run produced.
type Result struct {
	Frames      []Frame             `json:"frames"`
	Submissions []goform.Submission `json:"submissions"`
	Final       goform.View         `json:"final"`
}

// Runner replays scripts against fresh forms built from a definition.
type Runner struct {
	Def *formdef.Definition
	// AutoFlush flushes after every event, as if each event were a separate
	// user interaction. Without it only explicit flush events flush.
	AutoFlush bool
	Options   []goform.Option
}

// Run builds a new form and feeds it events. A trailing flush always runs.
func (r *Runner) Run(ctx context.Context, events []Event) (*Result, error) {
	res := &Result{}
	onSubmit := goform.WithOnSubmit(func(_ context.Context, s goform.Submission) error {
		res.Submissions = append(res.Submissions, goform.Submission{
			Errors: tree.Clone(s.Errors),
			Values: tree.Clone(s.Values),
		})
		return nil
	})
	opts := append(append([]goform.Option(nil), r.Options...), onSubmit)
	f, err := r.Def.Build(opts...)
	if err != nil {
		return nil, err
	}

	flush := func(step int, label string) error {
		if err := f.Flush(ctx); err != nil {
			return fmt.Errorf("replay: step %d (%s): %w", step, label, err)
		}
		res.Frames = append(res.Frames, Frame{Step: step, Event: label, Version: f.Version(), View: f.State()})
		return nil
	}

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := Apply(f, r.Def, ev); err != nil {
			return res, fmt.Errorf("replay: step %d (%s): %w", i, ev.Type, err)
		}
		if ev.Type == TypeFlush || r.AutoFlush {
			if err := flush(i, ev.Type); err != nil {
				return res, err
			}
		}
	}
	if f.Pending() {
		if err := flush(len(events), TypeFlush); err != nil {
			return res, err
		}
	}
	res.Final = f.State()
	return res, nil
}

// Apply delivers one event to f, resolving control names through def. Flush
// events are accepted but left to the caller.
func Apply(f *goform.Form, def *formdef.Definition, ev Event) error {
	switch ev.Type {
	case TypeFocus:
		return f.Focus(def.Control(ev.Control))
	case TypeBlur:
		return f.Blur(def.Control(ev.Control))
	case TypeChange:
		return f.Change(def.Control(ev.Control), ev.Value)
	case TypePointerDown:
		return f.PointerDown(ev.Label, def.Control(ev.Control))
	case TypeSubmit:
		f.SubmitForm()
		return nil
	case TypeValidate:
		if len(ev.Fields) == 0 {
			f.Validate(f.Fields()...)
			return nil
		}
		f.Validate(ev.Fields...)
		return nil
	case TypeFlush:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownEvent, ev.Type)
	}
}

// ParseScript decodes events. JSON input may be an array or one object per
// line; anything else is read as a YAML list.
func ParseScript(data []byte, format formdef.Format) ([]Event, error) {
	if format == formdef.FormatJSON {
		return parseJSON(data)
	}
	var events []Event
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&events); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("replay: decode yaml: %w", err)
	}
	return events, nil
}

func parseJSON(data []byte) ([]Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("replay: decode json: %w", err)
		}
		return events, nil
	}
	var events []Event
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("replay: decode json line %d: %w", len(events)+1, err)
		}
		events = append(events, ev)
	}
}

// LoadScript reads a script file; .json files are JSON, the rest YAML.
func LoadScript(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	return ParseScript(data, formdef.FormatOf(path))
}

// WriteJSON writes the result as indented JSON.
func (res *Result) WriteJSON(w io.Writer) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("replay: encode result: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
