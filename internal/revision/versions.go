package revision

import (
	"strconv"
	"time"

	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/google/uuid"
)

// Version is an immutable snapshot of document text.
type Version struct {
	ID          string    `json:"id"`
	Number      int       `json:"number"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
	Changes     []Change  `json:"changes,omitempty"` // Accepted changes at save time
}

// VersionLog holds the saved versions of one document.
type VersionLog struct {
	versions []Version
	now      func() time.Time
}

// NewVersionLog returns a log seeded with previously saved versions.
func NewVersionLog(existing []Version) *VersionLog {
	l := &VersionLog{now: time.Now}
	l.versions = append(l.versions, existing...)
	return l
}

// Save snapshots content as the next version number. Numbers start at 1 and
// continue from the highest existing number.
func (l *VersionLog) Save(content, author, description string, accepted []Change) Version {
	next := 1
	for _, v := range l.versions {
		if v.Number >= next {
			next = v.Number + 1
		}
	}
	snap := make([]Change, len(accepted))
	copy(snap, accepted)
	v := Version{
		ID:          uuid.New().String(),
		Number:      next,
		Content:     content,
		Author:      author,
		Timestamp:   l.now(),
		Description: description,
		Changes:     snap,
	}
	l.versions = append(l.versions, v)
	return v
}

// Get returns the version with number.
func (l *VersionLog) Get(number int) (Version, error) {
	for _, v := range l.versions {
		if v.Number == number {
			return v, nil
		}
	}
	return Version{}, ErrVersionNotFound
}

// Lookup resolves ref as a version id, falling back to a version number.
func (l *VersionLog) Lookup(ref string) (Version, error) {
	for _, v := range l.versions {
		if v.ID == ref {
			return v, nil
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return Version{}, ErrVersionNotFound
	}
	return l.Get(n)
}

// Latest returns the highest-numbered version.
func (l *VersionLog) Latest() (Version, bool) {
	var latest Version
	found := false
	for _, v := range l.versions {
		if !found || v.Number > latest.Number {
			latest = v
			found = true
		}
	}
	return latest, found
}

// List returns versions in save order.
func (l *VersionLog) List() []Version {
	out := make([]Version, len(l.versions))
	copy(out, l.versions)
	return out
}

// SectionRef names a section in a comparison.
type SectionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Comparison lists section-level differences between two versions.
type Comparison struct {
	From     int          `json:"from"`
	To       int          `json:"to"`
	Added    []SectionRef `json:"added"`
	Removed  []SectionRef `json:"removed"`
	Modified []SectionRef `json:"modified"`
}

// Compare parses both versions and matches sections by stable id. A section
// whose title or content differs is reported as modified under its new title.
func Compare(from, to Version, opts parser.Options) Comparison {
	before := parser.Parse(from.Content, opts)
	after := parser.CarryIDs(before, parser.Parse(to.Content, opts))

	cmp := Comparison{
		From:     from.Number,
		To:       to.Number,
		Added:    []SectionRef{},
		Removed:  []SectionRef{},
		Modified: []SectionRef{},
	}
	old := make(map[string]int, len(before))
	for i, s := range before {
		old[s.ID] = i
	}
	seen := make(map[string]bool, len(after))
	for _, s := range after {
		seen[s.ID] = true
		i, ok := old[s.ID]
		if !ok {
			cmp.Added = append(cmp.Added, SectionRef{ID: s.ID, Title: s.Title})
			continue
		}
		if before[i].Title != s.Title || before[i].Content != s.Content {
			cmp.Modified = append(cmp.Modified, SectionRef{ID: s.ID, Title: s.Title})
		}
	}
	for _, s := range before {
		if !seen[s.ID] {
			cmp.Removed = append(cmp.Removed, SectionRef{ID: s.ID, Title: s.Title})
		}
	}
	return cmp
}
