package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type beginEditRequest struct {
	SectionID string `json:"section_id"`
	Author    string `json:"author"`
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req beginEditRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SectionID == "" {
		jsonError(w, "section_id is required", http.StatusBadRequest)
		return
	}
	buffer, err := sess.BeginEdit(req.SectionID, req.Author)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, editView{SectionID: req.SectionID, Buffer: buffer})
}

func (s *Server) handleUpdateBuffer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Buffer string `json:"buffer"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := sess.UpdateBuffer(req.Buffer); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCommitEdit applies the edit buffer. The response carries the recorded
// change, or null when the text was already up to date.
func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	change, err := sess.CommitEdit()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"change": change, "report": viewOf(sess)})
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.CancelEdit(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sectionRequest struct {
	Index   *int   `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if !decode(w, r, &req) {
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	change, err := sess.AddSection(index, req.Title, req.Content, req.Author)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"change": change, "report": viewOf(sess)})
}

func (s *Server) handleEditSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if !decode(w, r, &req) {
		return
	}
	change, err := sess.EditSection(chi.URLParam(r, "sectionID"), req.Title, req.Content, req.Author)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"change": change, "report": viewOf(sess)})
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	change, err := sess.DeleteSection(chi.URLParam(r, "sectionID"), r.URL.Query().Get("author"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"change": change, "report": viewOf(sess)})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Undo(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Redo(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
