package revision

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/reportdoc/internal/parser"
)

func strPtr(s string) *string { return &s }

func TestChangeLog_Lifecycle(t *testing.T) {
	l := NewChangeLog(nil)
	c := l.Record(Change{Type: ChangeEdit, OldContent: strPtr("a"), NewContent: strPtr("b"), Author: "alice"})
	if c.ID == "" || c.Status != StatusPending || c.Timestamp.IsZero() {
		t.Fatalf("unexpected recorded change: %+v", c)
	}

	got, err := l.Accept(c.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", got.Status)
	}

	// Terminal states have no way out.
	if _, err := l.Reject(c.ID); !errors.Is(err, ErrChangeFinal) {
		t.Errorf("expected ErrChangeFinal, got %v", err)
	}
	if _, err := l.Accept(c.ID); !errors.Is(err, ErrChangeFinal) {
		t.Errorf("expected ErrChangeFinal on re-accept, got %v", err)
	}
	stored, _ := l.Get(c.ID)
	if stored.Status != StatusAccepted {
		t.Errorf("expected status untouched after failed transition, got %s", stored.Status)
	}
}

func TestChangeLog_Reject(t *testing.T) {
	l := NewChangeLog(nil)
	c := l.Record(Change{Type: ChangeAdd})
	got, err := l.Reject(c.ID)
	if err != nil || got.Status != StatusRejected {
		t.Fatalf("expected rejected, got %+v, %v", got, err)
	}
	if _, err := l.Accept(c.ID); !errors.Is(err, ErrChangeFinal) {
		t.Errorf("expected ErrChangeFinal, got %v", err)
	}
}

func TestChangeLog_NotFound(t *testing.T) {
	l := NewChangeLog(nil)
	l.Record(Change{Type: ChangeEdit})
	if _, err := l.Accept("missing"); !errors.Is(err, ErrChangeNotFound) {
		t.Errorf("expected ErrChangeNotFound, got %v", err)
	}
	if _, err := l.Get("missing"); !errors.Is(err, ErrChangeNotFound) {
		t.Errorf("expected ErrChangeNotFound, got %v", err)
	}
	if len(l.Pending()) != 1 {
		t.Error("expected existing change untouched")
	}
}

func TestChangeLog_AcceptAll(t *testing.T) {
	l := NewChangeLog(nil)
	a := l.Record(Change{Type: ChangeEdit})
	b := l.Record(Change{Type: ChangeEdit})
	c := l.Record(Change{Type: ChangeEdit})
	l.Reject(b.ID)

	moved := l.AcceptAll()
	if len(moved) != 2 || moved[0].ID != a.ID || moved[1].ID != c.ID {
		t.Fatalf("unexpected accepted set: %+v", moved)
	}
	if len(l.Accepted()) != 2 || len(l.Pending()) != 0 {
		t.Errorf("expected 2 accepted and 0 pending")
	}
	if got, _ := l.Get(b.ID); got.Status != StatusRejected {
		t.Errorf("expected rejected change to stay rejected, got %s", got.Status)
	}
}

func TestChangeLog_Seeded(t *testing.T) {
	l := NewChangeLog([]Change{{ID: "x", Status: StatusAccepted}, {ID: "y", Status: StatusPending}})
	if _, err := l.Accept("x"); !errors.Is(err, ErrChangeFinal) {
		t.Errorf("expected seeded accepted change to be final, got %v", err)
	}
	if got, err := l.Accept("y"); err != nil || got.Status != StatusAccepted {
		t.Errorf("expected seeded pending change to accept, got %+v, %v", got, err)
	}
}

func TestVersionLog_Numbering(t *testing.T) {
	l := NewVersionLog(nil)
	if _, ok := l.Latest(); ok {
		t.Error("expected no latest version")
	}
	v1 := l.Save("one", "alice", "first", nil)
	if v1.Number != 1 {
		t.Errorf("expected number 1, got %d", v1.Number)
	}
	accepted := []Change{{ID: "c1", Status: StatusAccepted}}
	v2 := l.Save("two", "bob", "", accepted)
	if v2.Number != 2 || len(v2.Changes) != 1 {
		t.Errorf("unexpected second version: %+v", v2)
	}
	accepted[0].ID = "mutated"
	if got, _ := l.Get(2); got.Changes[0].ID != "c1" {
		t.Error("expected version to hold its own copy of changes")
	}

	seeded := NewVersionLog([]Version{{Number: 7}, {Number: 3}})
	if v := seeded.Save("x", "", "", nil); v.Number != 8 {
		t.Errorf("expected max+1 = 8, got %d", v.Number)
	}
	if latest, _ := seeded.Latest(); latest.Number != 8 {
		t.Errorf("expected latest 8, got %d", latest.Number)
	}
	if _, err := seeded.Get(5); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestVersionLog_Lookup(t *testing.T) {
	l := NewVersionLog(nil)
	v1 := l.Save("one", "alice", "", nil)
	l.Save("two", "alice", "", nil)

	tests := []struct {
		ref    string
		number int
	}{
		{v1.ID, 1},
		{"2", 2},
	}
	for _, tt := range tests {
		got, err := l.Lookup(tt.ref)
		if err != nil {
			t.Fatalf("lookup %q: %v", tt.ref, err)
		}
		if got.Number != tt.number {
			t.Errorf("lookup %q: expected number %d, got %d", tt.ref, tt.number, got.Number)
		}
	}
	for _, ref := range []string{"", "9", "not-an-id"} {
		if _, err := l.Lookup(ref); !errors.Is(err, ErrVersionNotFound) {
			t.Errorf("lookup %q: expected ErrVersionNotFound, got %v", ref, err)
		}
	}
}

func TestCompare(t *testing.T) {
	from := Version{Number: 1, Content: "## A\nfoo\n\n---\n\n## B\nbar\n\n---\n\n## C\nbaz"}
	to := Version{Number: 2, Content: "## A\nfoo\n\n---\n\n## B\nchanged\n\n---\n\n## D\nnew"}

	cmp := Compare(from, to, parser.DefaultOptions())
	if cmp.From != 1 || cmp.To != 2 {
		t.Errorf("unexpected numbers: %+v", cmp)
	}
	if len(cmp.Modified) != 2 {
		t.Fatalf("expected B and renamed C modified, got %+v", cmp.Modified)
	}
	if cmp.Modified[0].Title != "B" || cmp.Modified[1].Title != "D" {
		t.Errorf("unexpected modified titles: %+v", cmp.Modified)
	}
	if len(cmp.Added) != 0 || len(cmp.Removed) != 0 {
		t.Errorf("expected rename to carry identity, got added=%+v removed=%+v", cmp.Added, cmp.Removed)
	}

	grown := Version{Number: 3, Content: to.Content + "\n\n---\n\n## E\nmore"}
	cmp = Compare(to, grown, parser.DefaultOptions())
	if len(cmp.Added) != 1 || cmp.Added[0].Title != "E" || len(cmp.Modified) != 0 {
		t.Errorf("expected E added, got %+v", cmp)
	}
	cmp = Compare(grown, to, parser.DefaultOptions())
	if len(cmp.Removed) != 1 || cmp.Removed[0].Title != "E" {
		t.Errorf("expected E removed, got %+v", cmp)
	}
}

func TestCommentStore(t *testing.T) {
	s := NewCommentStore(nil)
	c := s.Add(2, "sec-1", "alice", "Needs data")
	if c.ID == "" || c.Resolved || c.SectionIndex != 2 {
		t.Fatalf("unexpected comment: %+v", c)
	}

	got, err := s.Reply(c.ID, "bob", "Added")
	if err != nil || len(got.Replies) != 1 || got.Replies[0].Author != "bob" {
		t.Fatalf("unexpected reply result: %+v, %v", got, err)
	}

	got, _ = s.Resolve(c.ID)
	if !got.Resolved {
		t.Error("expected resolved")
	}
	got, _ = s.Resolve(c.ID)
	if !got.Resolved {
		t.Error("expected second resolve to keep resolved")
	}
	got, _ = s.Unresolve(c.ID)
	if got.Resolved {
		t.Error("expected unresolved")
	}

	s.Add(0, "sec-2", "carol", "Other")
	if n := len(s.ForSection("sec-1")); n != 1 {
		t.Errorf("expected 1 comment on sec-1, got %d", n)
	}
	if n := len(s.List()); n != 2 {
		t.Errorf("expected 2 comments, got %d", n)
	}

	for _, op := range []func(string) (Comment, error){s.Resolve, s.Unresolve, s.Get} {
		if _, err := op("missing"); !errors.Is(err, ErrCommentNotFound) {
			t.Errorf("expected ErrCommentNotFound, got %v", err)
		}
	}
	if _, err := s.Reply("missing", "x", "y"); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestHistory_UndoRedoInverse(t *testing.T) {
	h := NewHistory("v0", 10)
	h.Commit("v1")
	h.Commit("v2")

	text, ok := h.Undo()
	if !ok || text != "v1" {
		t.Fatalf("expected undo to v1, got %q %v", text, ok)
	}
	text, ok = h.Redo()
	if !ok || text != "v2" {
		t.Fatalf("expected redo to v2, got %q %v", text, ok)
	}
	if h.Current() != "v2" {
		t.Errorf("expected current v2, got %q", h.Current())
	}
}

func TestHistory_CommitClearsRedo(t *testing.T) {
	h := NewHistory("v0", 10)
	h.Commit("v1")
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo available")
	}
	h.Commit("v1b")
	if h.CanRedo() {
		t.Error("expected commit to clear redo")
	}
	if _, ok := h.Redo(); ok {
		t.Error("expected redo no-op")
	}
}

func TestHistory_EmptyStacks(t *testing.T) {
	h := NewHistory("v0", 10)
	if text, ok := h.Undo(); ok || text != "v0" {
		t.Errorf("expected no-op undo, got %q %v", text, ok)
	}
	if text, ok := h.Redo(); ok || text != "v0" {
		t.Errorf("expected no-op redo, got %q %v", text, ok)
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory("v0", 2)
	h.Commit("v1")
	h.Commit("v2")
	h.Commit("v3")
	h.Undo()
	h.Undo()
	if _, ok := h.Undo(); ok {
		t.Error("expected oldest snapshot dropped past the limit")
	}
	if h.Current() != "v1" {
		t.Errorf("expected current v1, got %q", h.Current())
	}
}

type saveRecorder struct {
	mu    sync.Mutex
	saves [][2]string
}

func (r *saveRecorder) save(old, new string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, [2]string{old, new})
}

func (r *saveRecorder) get() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]string(nil), r.saves...)
}

func TestAutoSaver_Debounce(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSaver("orig", 40*time.Millisecond, rec.save)
	defer a.Stop()

	a.Touch("first")
	time.Sleep(10 * time.Millisecond)
	a.Touch("second")
	time.Sleep(150 * time.Millisecond)

	saves := rec.get()
	if len(saves) != 1 {
		t.Fatalf("expected exactly one save, got %d: %v", len(saves), saves)
	}
	if saves[0][0] != "orig" || saves[0][1] != "second" {
		t.Errorf("expected orig -> second, got %v", saves[0])
	}
}

func TestAutoSaver_RevertIsNoop(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSaver("orig", 20*time.Millisecond, rec.save)
	defer a.Stop()

	a.Touch("changed")
	a.Touch("orig")
	time.Sleep(80 * time.Millisecond)

	if saves := rec.get(); len(saves) != 0 {
		t.Errorf("expected no save when text returns to saved value, got %v", saves)
	}
}

func TestAutoSaver_Flush(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSaver("orig", time.Hour, rec.save)
	defer a.Stop()

	a.Touch("next")
	old, text, ok := a.Flush()
	if !ok || old != "orig" || text != "next" {
		t.Fatalf("unexpected flush: %q %q %v", old, text, ok)
	}
	if _, _, ok := a.Flush(); ok {
		t.Error("expected second flush to be empty")
	}
	if a.Pending() {
		t.Error("expected nothing pending")
	}
	if saves := rec.get(); len(saves) != 0 {
		t.Errorf("expected flush not to call onSave, got %v", saves)
	}
}

func TestAutoSaver_Stop(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSaver("orig", 20*time.Millisecond, rec.save)
	a.Touch("changed")
	a.Stop()
	a.Touch("again")
	time.Sleep(60 * time.Millisecond)
	if saves := rec.get(); len(saves) != 0 {
		t.Errorf("expected stopped saver not to fire, got %v", saves)
	}
}

func TestAutoSaver_MarkSaved(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSaver("orig", 20*time.Millisecond, rec.save)
	defer a.Stop()
	a.Touch("changed")
	a.MarkSaved("changed")
	time.Sleep(60 * time.Millisecond)
	if saves := rec.get(); len(saves) != 0 {
		t.Errorf("expected mark-saved to drop pending save, got %v", saves)
	}
}

func TestEditor(t *testing.T) {
	e := NewEditor()
	if e.State() != EditorIdle {
		t.Fatalf("expected idle, got %s", e.State())
	}
	if err := e.Update("x"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
	if err := e.Begin("s1", "body"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := e.Begin("s2", "other"); !errors.Is(err, ErrEditInProgress) {
		t.Errorf("expected ErrEditInProgress, got %v", err)
	}
	if id, ok := e.Editing(); !ok || id != "s1" {
		t.Errorf("expected editing s1, got %q %v", id, ok)
	}
	if err := e.Update("new body"); err != nil {
		t.Fatalf("update: %v", err)
	}

	id, original, buffer, err := e.Finish()
	if err != nil || id != "s1" || original != "body" || buffer != "new body" {
		t.Errorf("unexpected finish: %q %q %q %v", id, original, buffer, err)
	}
	if e.State() != EditorIdle || e.Buffer() != "" {
		t.Errorf("expected idle with empty buffer")
	}
	if _, _, _, err := e.Finish(); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
}
