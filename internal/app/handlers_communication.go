package app

import (
	"net/http"
	"strconv"

	"github.com/Spok95/gestion-scolaire/internal/school"
)

// Announcements

func (s *Server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Announcements(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAllAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.AllAnnouncements(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in school.AnnouncementInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	ann, err := s.svc.CreateAnnouncement(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ann)
}

func (s *Server) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.AnnouncementInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	ann, err := s.svc.UpdateAnnouncement(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteAnnouncement(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Messages

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Inbox(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSent(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Sent(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.UnreadCount(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in school.MessageInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.SendMessage(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleReadMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.ReadMessage(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	out, err := s.svc.AuditLog(r.Context(), actorFrom(r.Context()), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
