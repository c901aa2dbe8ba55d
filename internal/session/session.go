package session

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/dgallion1/reportdoc/internal/report"
	"github.com/dgallion1/reportdoc/internal/revision"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrEmptyTitle      = errors.New("section title is required")
	// ErrUnstableContent rejects a title or body that would not come back
	// intact from a re-parse, such as a body containing a divider line.
	ErrUnstableContent = errors.New("section content would split or drop text on re-parse")

	errNoChange = errors.New("no change")
)

// Config holds the policies shared by every session.
type Config struct {
	Parse         parser.Options
	Report        report.Options // Title and Documents are set per session
	UndoLimit     int
	AutoSaveDelay time.Duration
	Logger        *slog.Logger

	// OnChange receives a snapshot after every mutation. Calls for one
	// session are serialized and never carry an older state than a previous
	// call.
	OnChange func(revision.Snapshot)
}

// Session is one open report. It owns the canonical text and every record
// derived from or attached to it.
type Session struct {
	mu sync.Mutex

	id        string
	title     string
	text      string
	sections  []doctree.Section
	documents []doctree.SourceDocument
	updatedAt time.Time

	changes    *revision.ChangeLog
	versions   *revision.VersionLog
	comments   *revision.CommentStore
	history    *revision.History
	editor     *revision.Editor
	autosave   *revision.AutoSaver
	editAuthor string

	cfg Config
	log *slog.Logger

	seq       uint64
	persistMu sync.Mutex
	persisted uint64
}

// New opens a session over freshly generated or imported text.
func New(docID, text string, documents []doctree.SourceDocument, cfg Config) *Session {
	return FromSnapshot(revision.Snapshot{
		DocID:     docID,
		Title:     leadingTitle(text, cfg.Parse),
		Text:      text,
		Documents: documents,
		UpdatedAt: time.Now(),
	}, cfg)
}

// FromSnapshot reopens a persisted session. Undo history and edit state are
// not persisted and start empty.
func FromSnapshot(snap revision.Snapshot, cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		id:        snap.DocID,
		title:     snap.Title,
		text:      snap.Text,
		documents: snap.Documents,
		updatedAt: snap.UpdatedAt,
		changes:   revision.NewChangeLog(snap.Changes),
		versions:  revision.NewVersionLog(snap.Versions),
		comments:  revision.NewCommentStore(snap.Comments),
		history:   revision.NewHistory(snap.Text, cfg.UndoLimit),
		editor:    revision.NewEditor(),
		cfg:       cfg,
		log:       log.With("doc_id", snap.DocID),
	}
	s.sections = parser.Parse(s.text, cfg.Parse)
	s.autosave = revision.NewAutoSaver(s.text, cfg.AutoSaveDelay, s.autoSave)
	return s
}

func (s *Session) ID() string { return s.id }

// Text returns the canonical report text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Sections returns every parsed section, meta sections included.
func (s *Session) Sections() []doctree.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]doctree.Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// Document builds the classified view of the current text.
func (s *Session) Document() *doctree.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := s.cfg.Report
	opts.Title = s.title
	opts.Documents = s.documents
	return report.Build(s.sections, opts)
}

// Documents returns the uploaded source list.
func (s *Session) Documents() []doctree.SourceDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]doctree.SourceDocument(nil), s.documents...)
}

// EditState reports the section open for editing and its buffer.
func (s *Session) EditState() (sectionID, buffer string, editing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.editor.Editing()
	return id, s.editor.Buffer(), ok
}

// BeginEdit opens a section for editing and returns its normalized body as
// the edit buffer.
func (s *Session) BeginEdit(sectionID, author string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(sectionID)
	if err != nil {
		return "", err
	}
	buffer := markup.Normalize(s.sections[i].Content)
	if err := s.editor.Begin(sectionID, buffer); err != nil {
		return "", err
	}
	s.editAuthor = author
	s.log.Debug("edit started", "section_id", sectionID)
	return buffer, nil
}

// UpdateBuffer replaces the edit buffer and re-arms auto-save.
func (s *Session) UpdateBuffer(buffer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.editor.Editing()
	if !ok {
		return revision.ErrNotEditing
	}
	i, err := s.indexOf(id)
	if err != nil {
		return err
	}
	if sameBody(buffer, s.sections[i].Content) {
		// Back at the saved text: drop any pending auto-save.
		if err := s.editor.Update(buffer); err != nil {
			return err
		}
		s.autosave.MarkSaved(s.text)
		return nil
	}
	text, err := s.withContent(id, buffer)
	if err != nil {
		return err
	}
	if err := s.editor.Update(buffer); err != nil {
		return err
	}
	s.autosave.Touch(text)
	return nil
}

// CommitEdit closes the open edit and applies the buffer. It returns nil when
// the buffer matches the section body, which happens when nothing changed or
// auto-save already applied it. An untouched buffer never rewrites the
// section, so its original formatting survives.
func (s *Session) CommitEdit() (*revision.Change, error) {
	var out *revision.Change
	err := s.mutate(func() error {
		id, ok := s.editor.Editing()
		if !ok {
			return revision.ErrNotEditing
		}
		i, err := s.indexOf(id)
		if err != nil {
			return err
		}
		buffer := s.editor.Buffer()
		if sameBody(buffer, s.sections[i].Content) {
			s.editor.Finish()
			s.autosave.MarkSaved(s.text)
			return errNoChange
		}
		text, err := s.withContent(id, buffer)
		if err != nil {
			return err
		}
		if _, _, _, err := s.editor.Finish(); err != nil {
			return err
		}
		s.autosave.Flush()
		c, err := s.applyEdit(id, text, s.editAuthor)
		if err != nil {
			return err
		}
		out = &c
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil, nil
	}
	return out, err
}

// CancelEdit discards the edit buffer. Text already applied by auto-save
// stays and can be undone.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, _, err := s.editor.Finish(); err != nil {
		return err
	}
	s.autosave.MarkSaved(s.text)
	return nil
}

func (s *Session) autoSave(_, text string) {
	err := s.mutate(func() error {
		id, ok := s.editor.Editing()
		if !ok {
			return errNoChange
		}
		_, err := s.applyEdit(id, text, s.editAuthor)
		return err
	})
	if err != nil && !errors.Is(err, errNoChange) {
		s.log.Warn("auto-save failed", "error", err)
		return
	}
	if err == nil {
		s.log.Debug("auto-saved")
	}
}

// EditSection replaces a section's title and body directly.
func (s *Session) EditSection(sectionID, title, content, author string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		i, err := s.indexOf(sectionID)
		if err != nil {
			return err
		}
		if strings.TrimSpace(title) == "" {
			title = s.sections[i].Title
		}
		next := s.copySections()
		next[i].Title = title
		next[i].Content = content
		text, err := s.serializeChecked(next)
		if err != nil {
			return err
		}
		out, err = s.applyEdit(sectionID, text, author)
		return err
	})
	return out, err
}

// AddSection inserts a section at index, or appends when index is out of
// range.
func (s *Session) AddSection(index int, title, content, author string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		if strings.TrimSpace(title) == "" {
			return ErrEmptyTitle
		}
		next := s.copySections()
		if index < 0 || index > len(next) {
			index = len(next)
		}
		next = append(next, doctree.Section{})
		copy(next[index+1:], next[index:])
		next[index] = doctree.Section{Title: title, Content: content}
		text, err := s.serializeChecked(next)
		if err != nil {
			return err
		}

		s.setText(text)
		id := ""
		if index < len(s.sections) {
			id = s.sections[index].ID
		}
		body := strings.TrimSpace(content)
		out = s.changes.Record(revision.Change{
			Type:         revision.ChangeAdd,
			SectionIndex: intPtr(index),
			SectionID:    id,
			NewContent:   &body,
			Author:       author,
		})
		return nil
	})
	return out, err
}

// DeleteSection removes a section.
func (s *Session) DeleteSection(sectionID, author string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		i, err := s.indexOf(sectionID)
		if err != nil {
			return err
		}
		removed := s.sections[i].Content
		next := s.copySections()
		next = append(next[:i], next[i+1:]...)

		s.setText(s.serialize(next))
		out = s.changes.Record(revision.Change{
			Type:         revision.ChangeDelete,
			SectionIndex: intPtr(i),
			SectionID:    sectionID,
			OldContent:   &removed,
			Author:       author,
		})
		return nil
	})
	return out, err
}

// AcceptChange marks a change accepted.
func (s *Session) AcceptChange(id string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		var err error
		out, err = s.changes.Accept(id)
		return err
	})
	return out, err
}

// RejectChange marks a change rejected. The text is left as is.
func (s *Session) RejectChange(id string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		var err error
		out, err = s.changes.Reject(id)
		return err
	})
	return out, err
}

// AcceptAll accepts every pending change.
func (s *Session) AcceptAll() []revision.Change {
	var out []revision.Change
	s.mutate(func() error {
		out = s.changes.AcceptAll()
		if len(out) == 0 {
			return errNoChange
		}
		return nil
	})
	return out
}

// Changes returns every change in creation order.
func (s *Session) Changes() []revision.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes.List()
}

// SaveVersion snapshots the current text with the accepted changes.
func (s *Session) SaveVersion(author, description string) revision.Version {
	var out revision.Version
	s.mutate(func() error {
		out = s.versions.Save(s.text, author, description, s.changes.Accepted())
		return nil
	})
	return out
}

// Versions returns saved versions in save order.
func (s *Session) Versions() []revision.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.List()
}

// RestoreVersion replaces the text with a saved version, named by id or
// number. The restore is recorded as an edit and can be undone.
func (s *Session) RestoreVersion(ref, author string) (revision.Change, error) {
	var out revision.Change
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		v, err := s.versions.Lookup(ref)
		if err != nil {
			return err
		}
		old := s.text
		content := v.Content
		s.setText(content)
		out = s.changes.Record(revision.Change{
			Type:       revision.ChangeEdit,
			OldContent: &old,
			NewContent: &content,
			Author:     author,
		})
		return nil
	})
	return out, err
}

// CompareVersions reports section differences between two saved versions,
// each named by id or number.
func (s *Session) CompareVersions(from, to string) (revision.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.versions.Lookup(from)
	if err != nil {
		return revision.Comparison{}, err
	}
	b, err := s.versions.Lookup(to)
	if err != nil {
		return revision.Comparison{}, err
	}
	return revision.Compare(a, b, s.cfg.Parse), nil
}

// AddComment opens a thread on a section and records it as a comment change.
func (s *Session) AddComment(sectionID, author, content string) (revision.Comment, error) {
	var out revision.Comment
	err := s.mutate(func() error {
		i, err := s.indexOf(sectionID)
		if err != nil {
			return err
		}
		out = s.comments.Add(s.sections[i].Index, sectionID, author, content)
		body := content
		s.changes.Record(revision.Change{
			Type:         revision.ChangeComment,
			SectionIndex: intPtr(s.sections[i].Index),
			SectionID:    sectionID,
			NewContent:   &body,
			Author:       author,
		})
		return nil
	})
	return out, err
}

// ReplyComment appends a reply to a thread.
func (s *Session) ReplyComment(id, author, content string) (revision.Comment, error) {
	var out revision.Comment
	err := s.mutate(func() error {
		var err error
		out, err = s.comments.Reply(id, author, content)
		return err
	})
	return out, err
}

// ResolveComment marks a thread resolved.
func (s *Session) ResolveComment(id string) (revision.Comment, error) {
	var out revision.Comment
	err := s.mutate(func() error {
		var err error
		out, err = s.comments.Resolve(id)
		return err
	})
	return out, err
}

// UnresolveComment reopens a thread.
func (s *Session) UnresolveComment(id string) (revision.Comment, error) {
	var out revision.Comment
	err := s.mutate(func() error {
		var err error
		out, err = s.comments.Unresolve(id)
		return err
	})
	return out, err
}

// Comments returns every thread in creation order.
func (s *Session) Comments() []revision.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments.List()
}

// Undo reverts the most recent committed text change.
func (s *Session) Undo() (string, error) {
	var out string
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		text, ok := s.history.Undo()
		if !ok {
			return ErrNothingToUndo
		}
		s.adopt(text)
		out = text
		return nil
	})
	return out, err
}

// Redo re-applies the most recently undone text change.
func (s *Session) Redo() (string, error) {
	var out string
	err := s.mutate(func() error {
		if err := s.idle(); err != nil {
			return err
		}
		text, ok := s.history.Redo()
		if !ok {
			return ErrNothingToRedo
		}
		s.adopt(text)
		out = text
		return nil
	})
	return out, err
}

// CanUndo and CanRedo report whether the history stacks are non-empty.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Snapshot returns the persistable state.
func (s *Session) Snapshot() revision.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close stops auto-save. A pending buffer that was never committed is
// dropped.
func (s *Session) Close() {
	s.autosave.Stop()
}

// mutate runs fn under the session lock and hands the resulting snapshot to
// OnChange when fn succeeds.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.updatedAt = time.Now()
	s.seq++
	seq := s.seq
	snap := s.snapshot()
	s.mu.Unlock()

	if s.cfg.OnChange == nil {
		return nil
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if seq > s.persisted {
		s.cfg.OnChange(snap)
		s.persisted = seq
	}
	return nil
}

// applyEdit commits text as an edit of sectionID. Callers hold mu.
func (s *Session) applyEdit(sectionID, text, author string) (revision.Change, error) {
	if text == s.text {
		return revision.Change{}, errNoChange
	}
	var index *int
	if i, err := s.indexOf(sectionID); err == nil {
		index = intPtr(s.sections[i].Index)
	}
	old := s.text
	s.setText(text)
	return s.changes.Record(revision.Change{
		Type:         revision.ChangeEdit,
		SectionIndex: index,
		SectionID:    sectionID,
		OldContent:   &old,
		NewContent:   &text,
		Author:       author,
	}), nil
}

// setText commits text to history and re-parses. Callers hold mu.
func (s *Session) setText(text string) {
	s.history.Commit(text)
	s.adopt(text)
}

// adopt makes text current without touching history. Callers hold mu.
func (s *Session) adopt(text string) {
	s.text = text
	s.sections = parser.CarryIDs(s.sections, parser.Parse(text, s.cfg.Parse))
	s.autosave.MarkSaved(text)
}

func (s *Session) idle() error {
	if _, editing := s.editor.Editing(); editing {
		return revision.ErrEditInProgress
	}
	return nil
}

func (s *Session) indexOf(sectionID string) (int, error) {
	for i, sec := range s.sections {
		if sec.ID == sectionID {
			return i, nil
		}
	}
	return -1, ErrSectionNotFound
}

func (s *Session) copySections() []doctree.Section {
	out := make([]doctree.Section, len(s.sections))
	copy(out, s.sections)
	return out
}

func (s *Session) withContent(sectionID, content string) (string, error) {
	i, err := s.indexOf(sectionID)
	if err != nil {
		return "", err
	}
	next := s.copySections()
	next[i].Content = content
	return s.serializeChecked(next)
}

func (s *Session) serialize(sections []doctree.Section) string {
	opts := s.cfg.Parse
	opts.DocumentTitle = s.title
	return parser.Serialize(sections, opts)
}

// serializeChecked serializes sections and confirms that parsing the result
// gives back every title and body. Callers hold mu.
func (s *Session) serializeChecked(sections []doctree.Section) (string, error) {
	text := s.serialize(sections)
	got := parser.Parse(text, s.cfg.Parse)
	if len(got) != len(sections) {
		return "", ErrUnstableContent
	}
	for i, sec := range sections {
		title, _ := markup.HeadingText("## " + strings.Join(strings.Fields(sec.Title), " "))
		if got[i].Title != title || got[i].Content != strings.TrimSpace(sec.Content) {
			return "", ErrUnstableContent
		}
	}
	return text, nil
}

// sameBody reports whether an edit buffer still matches a section body as it
// was handed out by BeginEdit.
func sameBody(buffer, content string) bool {
	return strings.TrimSpace(buffer) == strings.TrimSpace(markup.Normalize(content))
}

func (s *Session) snapshot() revision.Snapshot {
	return revision.Snapshot{
		DocID:     s.id,
		Title:     s.title,
		Text:      s.text,
		Documents: append([]doctree.SourceDocument(nil), s.documents...),
		Changes:   s.changes.List(),
		Versions:  s.versions.List(),
		Comments:  s.comments.List(),
		UpdatedAt: s.updatedAt,
	}
}

// leadingTitle returns the text of a leading title line matched by the parse
// options, so serialization can write it back.
func leadingTitle(text string, opts parser.Options) string {
	if opts.TitlePattern == nil {
		return ""
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !opts.TitlePattern.MatchString(line) {
			return ""
		}
		if t, level := markup.HeadingText(line); level > 0 {
			return t
		}
		return strings.TrimSpace(markup.Normalize(line))
	}
	return ""
}

func intPtr(i int) *int { return &i }
