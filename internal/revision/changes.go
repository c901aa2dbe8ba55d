package revision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// ChangeType identifies what a change did to the document.
type ChangeType string

const (
	ChangeEdit    ChangeType = "edit"
	ChangeAdd     ChangeType = "add"
	ChangeDelete  ChangeType = "delete"
	ChangeComment ChangeType = "comment"
)

// ChangeStatus is the review state of a change.
type ChangeStatus string

const (
	StatusPending  ChangeStatus = "pending"
	StatusAccepted ChangeStatus = "accepted"
	StatusRejected ChangeStatus = "rejected"
)

const (
	eventAccept = "accept"
	eventReject = "reject"
)

// Change is one recorded modification awaiting review. Content fields hold
// whole-document text for edits, or section text for adds and deletes.
type Change struct {
	ID           string       `json:"id"`
	Type         ChangeType   `json:"type"`
	SectionIndex *int         `json:"section_index,omitempty"`
	SectionID    string       `json:"section_id,omitempty"`
	OldContent   *string      `json:"old_content,omitempty"`
	NewContent   *string      `json:"new_content,omitempty"`
	Author       string       `json:"author"`
	Timestamp    time.Time    `json:"timestamp"`
	Status       ChangeStatus `json:"status"`
}

// newChangeMachine returns the review lifecycle positioned at status. Accepted
// and rejected have no outgoing events.
func newChangeMachine(status ChangeStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(status),
		fsm.Events{
			{Name: eventAccept, Src: []string{string(StatusPending)}, Dst: string(StatusAccepted)},
			{Name: eventReject, Src: []string{string(StatusPending)}, Dst: string(StatusRejected)},
		},
		fsm.Callbacks{},
	)
}

// ChangeLog records changes in creation order. It is not safe for concurrent
// use; the owning session serializes access.
type ChangeLog struct {
	changes []Change
	index   map[string]int
	now     func() time.Time
}

// NewChangeLog returns a log seeded with previously recorded changes.
func NewChangeLog(existing []Change) *ChangeLog {
	l := &ChangeLog{index: make(map[string]int), now: time.Now}
	for _, c := range existing {
		l.index[c.ID] = len(l.changes)
		l.changes = append(l.changes, c)
	}
	return l
}

// Record assigns an id and timestamp to c and stores it as pending.
func (l *ChangeLog) Record(c Change) Change {
	c.ID = uuid.New().String()
	c.Timestamp = l.now()
	c.Status = StatusPending
	l.index[c.ID] = len(l.changes)
	l.changes = append(l.changes, c)
	return c
}

// Accept moves a pending change to accepted.
func (l *ChangeLog) Accept(id string) (Change, error) {
	return l.transition(id, eventAccept)
}

// Reject moves a pending change to rejected. The text is not reverted.
func (l *ChangeLog) Reject(id string) (Change, error) {
	return l.transition(id, eventReject)
}

func (l *ChangeLog) transition(id, event string) (Change, error) {
	i, ok := l.index[id]
	if !ok {
		return Change{}, ErrChangeNotFound
	}
	sm := newChangeMachine(l.changes[i].Status)
	if err := sm.Event(context.Background(), event); err != nil {
		return l.changes[i], ErrChangeFinal
	}
	l.changes[i].Status = ChangeStatus(sm.Current())
	return l.changes[i], nil
}

// AcceptAll accepts every pending change and returns the ones it moved.
func (l *ChangeLog) AcceptAll() []Change {
	var out []Change
	for i := range l.changes {
		if l.changes[i].Status != StatusPending {
			continue
		}
		c, err := l.transition(l.changes[i].ID, eventAccept)
		if err == nil {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the change with id.
func (l *ChangeLog) Get(id string) (Change, error) {
	i, ok := l.index[id]
	if !ok {
		return Change{}, ErrChangeNotFound
	}
	return l.changes[i], nil
}

// List returns every change in creation order.
func (l *ChangeLog) List() []Change {
	out := make([]Change, len(l.changes))
	copy(out, l.changes)
	return out
}

// Accepted returns accepted changes in creation order.
func (l *ChangeLog) Accepted() []Change {
	return l.filter(StatusAccepted)
}

// Pending returns pending changes in creation order.
func (l *ChangeLog) Pending() []Change {
	return l.filter(StatusPending)
}

func (l *ChangeLog) filter(status ChangeStatus) []Change {
	var out []Change
	for _, c := range l.changes {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}
