package app

import (
	"context"
	"net/http"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	classID, err := queryID(r, "class_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := school.UserQuery{
		Role:            r.URL.Query().Get("role"),
		ClassID:         classID,
		Search:          r.URL.Query().Get("search"),
		IncludeInactive: queryBool(r, "include_inactive"),
	}
	users, err := s.svc.ListUsers(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.GetUser(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in school.UserInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.CreateUser(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.UserInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.UpdateUser(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteUser(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	users, err := s.svc.Children(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleParents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	users, err := s.svc.Parents(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleLinkParent(w http.ResponseWriter, r *http.Request) {
	s.parentLink(w, r, s.svc.LinkParent)
}

func (s *Server) handleUnlinkParent(w http.ResponseWriter, r *http.Request) {
	s.parentLink(w, r, s.svc.UnlinkParent)
}

type parentLinkFunc func(ctx context.Context, a access.Actor, parentID, studentID int64, ip string) error

func (s *Server) parentLink(w http.ResponseWriter, r *http.Request, op parentLinkFunc) {
	parentID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	studentID, err := pathID(r, "studentId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := op(r.Context(), actorFrom(r.Context()), parentID, studentID, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTeacherSubjects(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	subjects, err := s.svc.TeacherSubjects(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleSetTeacherSubjects(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.TeacherSubjectsInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	subjects, err := s.svc.SetTeacherSubjects(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ExportUsers(r.Context(), actorFrom(r.Context()), queryBool(r, "include_inactive"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, doc)
}
