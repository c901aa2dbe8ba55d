package revision

import (
	"context"

	"github.com/looplab/fsm"
)

const (
	EditorIdle    = "idle"
	EditorEditing = "editing"

	eventBegin  = "begin"
	eventFinish = "finish"
)

// Editor tracks the single section open for editing in a document. It is in
// one of two states: idle, or editing one section with a working buffer.
type Editor struct {
	sm        *fsm.FSM
	sectionID string
	original  string
	buffer    string
}

func NewEditor() *Editor {
	return &Editor{
		sm: fsm.NewFSM(
			EditorIdle,
			fsm.Events{
				{Name: eventBegin, Src: []string{EditorIdle}, Dst: EditorEditing},
				{Name: eventFinish, Src: []string{EditorEditing}, Dst: EditorIdle},
			},
			fsm.Callbacks{},
		),
	}
}

// Begin opens sectionID for editing with buffer as the starting text.
func (e *Editor) Begin(sectionID, buffer string) error {
	if err := e.sm.Event(context.Background(), eventBegin); err != nil {
		return ErrEditInProgress
	}
	e.sectionID = sectionID
	e.original = buffer
	e.buffer = buffer
	return nil
}

// Update replaces the working buffer.
func (e *Editor) Update(buffer string) error {
	if e.sm.Current() != EditorEditing {
		return ErrNotEditing
	}
	e.buffer = buffer
	return nil
}

// Finish closes the edit and returns the section id, the text the edit
// started from, and the final buffer.
func (e *Editor) Finish() (sectionID, original, buffer string, err error) {
	if err := e.sm.Event(context.Background(), eventFinish); err != nil {
		return "", "", "", ErrNotEditing
	}
	sectionID, original, buffer = e.sectionID, e.original, e.buffer
	e.sectionID, e.original, e.buffer = "", "", ""
	return sectionID, original, buffer, nil
}

// Editing returns the open section id, if any.
func (e *Editor) Editing() (string, bool) {
	if e.sm.Current() != EditorEditing {
		return "", false
	}
	return e.sectionID, true
}

// Buffer returns the working buffer, or "" when idle.
func (e *Editor) Buffer() string { return e.buffer }

func (e *Editor) State() string { return e.sm.Current() }
