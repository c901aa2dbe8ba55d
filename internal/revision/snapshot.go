package revision

import (
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
)

// Snapshot is the persisted state of one document session.
type Snapshot struct {
	DocID     string                   `json:"doc_id"`
	Title     string                   `json:"title,omitempty"`
	Text      string                   `json:"text"`
	Documents []doctree.SourceDocument `json:"documents,omitempty"`
	Changes   []Change                 `json:"changes"`
	Versions  []Version                `json:"versions"`
	Comments  []Comment                `json:"comments"`
	UpdatedAt time.Time                `json:"updated_at"`
}
