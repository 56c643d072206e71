package app

import (
	"net/http"
)

func (s *Server) handleBulletin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.svc.Bulletin(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBulletinPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.BulletinPDF(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) handleClassReportPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.ClassReportPDF(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) handleExportClassResults(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.ExportClassResults(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, doc)
}
