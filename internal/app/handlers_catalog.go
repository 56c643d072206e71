package app

import (
	"net/http"

	"github.com/Spok95/gestion-scolaire/internal/school"
)

// Classes

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.svc.ListClasses(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.GetClass(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var in school.ClassInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.CreateClass(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.ClassInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.UpdateClass(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteClass(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClassStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.ClassStructure(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Subjects

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.svc.ListSubjects(r.Context(), actorFrom(r.Context()), queryBool(r, "active"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var in school.SubjectInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := s.svc.CreateSubject(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.SubjectInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := s.svc.UpdateSubject(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteSubject(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Bulletin structures

func (s *Server) handleListStructures(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListStructures(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateStructure(w http.ResponseWriter, r *http.Request) {
	var in school.StructureInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.CreateStructure(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleUpdateStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.StructureInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.UpdateStructure(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteStructure(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Academic years

func (s *Server) handleListAcademicYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.svc.ListAcademicYears(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleCurrentAcademicYear(w http.ResponseWriter, r *http.Request) {
	y, err := s.svc.CurrentAcademicYear(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, y)
}

func (s *Server) handleCreateAcademicYear(w http.ResponseWriter, r *http.Request) {
	var in school.AcademicYearInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	y, err := s.svc.CreateAcademicYear(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, y)
}

func (s *Server) handleSetCurrentAcademicYear(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.SetCurrentAcademicYear(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
