package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/render"
	"github.com/dgallion1/reportdoc/internal/revision"
	"github.com/dgallion1/reportdoc/internal/session"
	"github.com/dgallion1/reportdoc/internal/store"
)

type editView struct {
	SectionID string `json:"section_id"`
	Buffer    string `json:"buffer"`
}

type reportView struct {
	DocID    string            `json:"doc_id"`
	Text     string            `json:"text"`
	Document *doctree.Document `json:"document"`
	Edit     *editView         `json:"edit,omitempty"`
	CanUndo  bool              `json:"can_undo"`
	CanRedo  bool              `json:"can_redo"`
	Pending  int               `json:"pending_changes"`
}

func viewOf(sess *session.Session) reportView {
	v := reportView{
		DocID:    sess.ID(),
		Text:     sess.Text(),
		Document: sess.Document(),
		CanUndo:  sess.CanUndo(),
		CanRedo:  sess.CanRedo(),
	}
	if id, buffer, ok := sess.EditState(); ok {
		v.Edit = &editView{SectionID: id, Buffer: buffer}
	}
	for _, c := range sess.Changes() {
		if c.Status == revision.StatusPending {
			v.Pending++
		}
	}
	return v
}

type createReportRequest struct {
	DocID     string                   `json:"doc_id"`
	Text      string                   `json:"text"`
	Documents []doctree.SourceDocument `json:"documents"`
}

// handleCreateReport opens a session over report text supplied by the caller.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.DocID == "" {
		req.DocID = uuid.New().String()
	} else if _, err := s.sessions.Get(r.Context(), req.DocID); err == nil {
		jsonError(w, "document already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.DocID, req.Text, req.Documents)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list reports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": ids})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleReportText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(sess.Text()))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	page, err := render.Page(sess.Document().Title, sess.Text())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.sessions.Delete(r.Context(), docID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
