package app

import (
	"net/http"

	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	studentID, err := queryID(r, "student_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	classID, err := queryID(r, "class_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := school.GradeQuery{
		StudentID: studentID,
		ClassID:   classID,
		Period:    r.URL.Query().Get("period"),
		Subject:   r.URL.Query().Get("subject"),
	}
	grades, err := s.svc.ListGrades(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grades)
}

func (s *Server) handleSubmitGrade(w http.ResponseWriter, r *http.Request) {
	var in school.GradeInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.svc.SubmitGrade(r.Context(), actorFrom(r.Context()), in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.GradeInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.svc.UpdateGrade(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DeleteGrade(r.Context(), actorFrom(r.Context()), id, clientIP(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStudentGrades(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.StudentGrades(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStudentStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.StudentStats(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStudentRank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.StudentRank(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClassRanking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := grading.RankOptions{ExcludeUngraded: queryBool(r, "exclude_ungraded")}
	out, err := s.svc.ClassRanking(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClassStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.ClassStats(r.Context(), actorFrom(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Attendance

func (s *Server) handleSaveAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in school.AttendanceSheetInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := s.svc.SaveAttendance(r.Context(), actorFrom(r.Context()), id, in, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": n})
}

func (s *Server) handleClassAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	out, err := s.svc.ClassAttendance(r.Context(), actorFrom(r.Context()), id, q.Get("date"), q.Get("slot"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStudentAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := school.AttendanceQuery{Month: r.URL.Query().Get("month"), Status: r.URL.Query().Get("status")}
	out, err := s.svc.StudentAttendance(r.Context(), actorFrom(r.Context()), id, q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
