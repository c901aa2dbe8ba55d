package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/reportdoc/internal/revision"
)

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	changes := sess.Changes()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := []revision.Change{}
		for _, c := range changes {
			if string(c.Status) == status {
				filtered = append(filtered, c)
			}
		}
		changes = filtered
	}
	if changes == nil {
		changes = []revision.Change{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changes})
}

func (s *Server) handleAcceptChange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := sess.AcceptChange(chi.URLParam(r, "changeID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRejectChange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := sess.RejectChange(chi.URLParam(r, "changeID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	accepted := sess.AcceptAll()
	if accepted == nil {
		accepted = []revision.Change{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": accepted})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	versions := sess.Versions()
	if versions == nil {
		versions = []revision.Version{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Author      string `json:"author"`
		Description string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, sess.SaveVersion(req.Author, req.Description))
}

func (s *Server) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Author string `json:"author"`
	}
	if !decode(w, r, &req) {
		return
	}
	change, err := sess.RestoreVersion(chi.URLParam(r, "version"), req.Author)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"change": change, "report": viewOf(sess)})
}

func (s *Server) handleCompareVersions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		jsonError(w, "from and to versions are required", http.StatusBadRequest)
		return
	}
	cmp, err := sess.CompareVersions(from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type commentRequest struct {
	SectionID string `json:"section_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	comments := sess.Comments()
	if sectionID := r.URL.Query().Get("section_id"); sectionID != "" {
		filtered := []revision.Comment{}
		for _, c := range comments {
			if c.SectionID == sectionID {
				filtered = append(filtered, c)
			}
		}
		comments = filtered
	}
	if comments == nil {
		comments = []revision.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SectionID == "" || req.Content == "" {
		jsonError(w, "section_id and content are required", http.StatusBadRequest)
		return
	}
	c, err := sess.AddComment(req.SectionID, req.Author, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleReplyComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}
	c, err := sess.ReplyComment(chi.URLParam(r, "commentID"), req.Author, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleResolveComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := sess.ResolveComment(chi.URLParam(r, "commentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUnresolveComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := sess.UnresolveComment(chi.URLParam(r, "commentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
