package goform

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/goform/tree"
)

// MarshalJSON renders the view with empty trees as {} rather than null.
func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Values tree.Tree `json:"values"`
		Errors tree.Tree `json:"errors"`
	}{Values: nonNil(v.Values), Errors: nonNil(v.Errors)})
}

// MarshalJSON renders the submission with empty trees as {} rather than null.
func (s Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Errors tree.Tree `json:"errors"`
		Values tree.Tree `json:"values"`
	}{Errors: nonNil(s.Errors), Values: nonNil(s.Values)})
}

// JSON returns the indented JSON rendering of the view.
func (v View) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("goform: encode view: %w", err)
	}
	return b, nil
}

func (f *Form) writeDebug() error {
	b, err := f.State().JSON()
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := f.debug.Write(b); err != nil {
		return fmt.Errorf("goform: write debug view: %w", err)
	}
	return nil
}

func nonNil(t tree.Tree) tree.Tree {
	if t == nil {
		return tree.Tree{}
	}
	return t
}
