package revision

import (
	"time"

	"github.com/google/uuid"
)

// Reply is a response in a comment thread.
type Reply struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Comment is a thread anchored to a section.
type Comment struct {
	ID           string    `json:"id"`
	SectionIndex int       `json:"section_index"`
	SectionID    string    `json:"section_id"`
	Content      string    `json:"content"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Resolved     bool      `json:"resolved"`
	Replies      []Reply   `json:"replies"`
}

// CommentStore holds the comment threads of one document.
type CommentStore struct {
	comments []Comment
	index    map[string]int
	now      func() time.Time
}

// NewCommentStore returns a store seeded with existing threads.
func NewCommentStore(existing []Comment) *CommentStore {
	s := &CommentStore{index: make(map[string]int), now: time.Now}
	for _, c := range existing {
		s.index[c.ID] = len(s.comments)
		s.comments = append(s.comments, c)
	}
	return s
}

// Add opens a new unresolved thread on a section.
func (s *CommentStore) Add(sectionIndex int, sectionID, author, content string) Comment {
	c := Comment{
		ID:           uuid.New().String(),
		SectionIndex: sectionIndex,
		SectionID:    sectionID,
		Content:      content,
		Author:       author,
		Timestamp:    s.now(),
		Replies:      []Reply{},
	}
	s.index[c.ID] = len(s.comments)
	s.comments = append(s.comments, c)
	return c
}

// Reply appends a reply to a thread.
func (s *CommentStore) Reply(id, author, content string) (Comment, error) {
	i, ok := s.index[id]
	if !ok {
		return Comment{}, ErrCommentNotFound
	}
	s.comments[i].Replies = append(s.comments[i].Replies, Reply{
		ID:        uuid.New().String(),
		Author:    author,
		Content:   content,
		Timestamp: s.now(),
	})
	return s.copyOf(i), nil
}

// Resolve marks a thread resolved. Resolving twice is a no-op.
func (s *CommentStore) Resolve(id string) (Comment, error) {
	return s.setResolved(id, true)
}

// Unresolve reopens a thread.
func (s *CommentStore) Unresolve(id string) (Comment, error) {
	return s.setResolved(id, false)
}

func (s *CommentStore) setResolved(id string, resolved bool) (Comment, error) {
	i, ok := s.index[id]
	if !ok {
		return Comment{}, ErrCommentNotFound
	}
	s.comments[i].Resolved = resolved
	return s.copyOf(i), nil
}

// Get returns the thread with id.
func (s *CommentStore) Get(id string) (Comment, error) {
	i, ok := s.index[id]
	if !ok {
		return Comment{}, ErrCommentNotFound
	}
	return s.copyOf(i), nil
}

// ForSection returns the threads anchored to a section id.
func (s *CommentStore) ForSection(sectionID string) []Comment {
	var out []Comment
	for i, c := range s.comments {
		if c.SectionID == sectionID {
			out = append(out, s.copyOf(i))
		}
	}
	return out
}

// List returns every thread in creation order.
func (s *CommentStore) List() []Comment {
	out := make([]Comment, len(s.comments))
	for i := range s.comments {
		out[i] = s.copyOf(i)
	}
	return out
}

func (s *CommentStore) copyOf(i int) Comment {
	c := s.comments[i]
	c.Replies = append([]Reply{}, c.Replies...)
	return c
}
