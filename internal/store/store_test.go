package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/revision"
)

func sampleSnapshot() revision.Snapshot {
	idx := 1
	oldText, newText := "a", "b"
	return revision.Snapshot{
		DocID:     "doc-1",
		Title:     "Report",
		Text:      "## A\nfoo",
		Documents: []doctree.SourceDocument{{Name: "iep.pdf", Type: "pdf", Size: 12, Status: "processed"}},
		Changes: []revision.Change{
			{ID: "c1", Type: revision.ChangeEdit, SectionIndex: &idx, SectionID: "s1", OldContent: &oldText, NewContent: &newText, Status: revision.StatusPending},
			{ID: "c2", Type: revision.ChangeComment, Status: revision.StatusAccepted},
		},
		Versions: []revision.Version{{ID: "v1", Number: 1, Content: "## A\nfoo", Changes: []revision.Change{{ID: "c2"}}}},
		Comments: []revision.Comment{{ID: "m1", SectionID: "s1", Content: "hi", Replies: []revision.Reply{{ID: "r1", Content: "yo"}}}},
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestMemory_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Load(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snap := sampleSnapshot()
	if err := m.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Comments[0].Replies[0].Content = "mutated"

	got, err := m.Load(ctx, "doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Text != "## A\nfoo" || len(got.Changes) != 2 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.Comments[0].Replies[0].Content != "yo" {
		t.Error("expected stored snapshot isolated from caller mutation")
	}

	if ids, _ := m.List(ctx); len(ids) != 1 || ids[0] != "doc-1" {
		t.Errorf("expected [doc-1], got %v", ids)
	}

	if err := m.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d", m.Len())
	}
	if err := m.Delete(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRows_PreserveSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	rows, err := toRows(snap)
	if err != nil {
		t.Fatalf("toRows: %v", err)
	}
	if rows.changes[1].Seq != 1 || rows.changes[0].DocID != "doc-1" {
		t.Errorf("expected ordered rows keyed by document, got %+v", rows.changes)
	}

	got, err := fromRows(rows)
	if err != nil {
		t.Fatalf("fromRows: %v", err)
	}
	if got.DocID != snap.DocID || got.Text != snap.Text || !got.UpdatedAt.Equal(snap.UpdatedAt) {
		t.Errorf("unexpected document fields: %+v", got)
	}
	if len(got.Documents) != 1 || got.Documents[0].Name != "iep.pdf" {
		t.Errorf("unexpected documents: %+v", got.Documents)
	}
	c := got.Changes[0]
	if *c.SectionIndex != 1 || *c.OldContent != "a" || *c.NewContent != "b" || c.Status != revision.StatusPending {
		t.Errorf("unexpected change: %+v", c)
	}
	if len(got.Versions[0].Changes) != 1 || got.Versions[0].Changes[0].ID != "c2" {
		t.Errorf("unexpected version changes: %+v", got.Versions[0].Changes)
	}
	if len(got.Comments[0].Replies) != 1 || got.Comments[0].Replies[0].Content != "yo" {
		t.Errorf("unexpected replies: %+v", got.Comments[0].Replies)
	}
}

func TestFromRows_BadJSON(t *testing.T) {
	rows := snapshotRows{
		doc:      DocumentRow{ID: "d"},
		comments: []CommentRow{{ID: "m", Replies: "{not json"}},
	}
	if _, err := fromRows(rows); err == nil {
		t.Error("expected decode error")
	}
}
