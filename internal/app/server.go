package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

type Options struct {
	CORSOrigins    []string
	LoginRateLimit int // per minute and address
}

// Server exposes the school service over JSON HTTP.
type Server struct {
	svc  *school.Service
	db   *sql.DB
	log  *zap.Logger
	opts Options
}

func NewServer(svc *school.Service, database *sql.DB, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}
	return &Server{svc: svc, db: database, log: log, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.observe, s.recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", requestIDHeader},
			AllowCredentials: true,
		}).Handler)
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(httprate.LimitByIP(s.opts.LoginRateLimit, time.Minute)).Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Get("/periods", s.handlePeriods)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/profile", s.handleProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/profile/password", s.handleChangePassword)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Get("/users/export", s.handleExportUsers)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
			r.Get("/users/{id}/children", s.handleChildren)
			r.Get("/users/{id}/parents", s.handleParents)
			r.Post("/users/{id}/children/{studentId}", s.handleLinkParent)
			r.Delete("/users/{id}/children/{studentId}", s.handleUnlinkParent)
			r.Get("/users/{id}/subjects", s.handleTeacherSubjects)
			r.Put("/users/{id}/subjects", s.handleSetTeacherSubjects)

			r.Get("/classes", s.handleListClasses)
			r.Post("/classes", s.handleCreateClass)
			r.Get("/classes/{id}", s.handleGetClass)
			r.Put("/classes/{id}", s.handleUpdateClass)
			r.Delete("/classes/{id}", s.handleDeleteClass)
			r.Get("/classes/{id}/structure", s.handleClassStructure)
			r.Get("/classes/{id}/ranking", s.handleClassRanking)
			r.Get("/classes/{id}/stats", s.handleClassStats)
			r.Get("/classes/{id}/report.pdf", s.handleClassReportPDF)
			r.Get("/classes/{id}/results.xlsx", s.handleExportClassResults)
			r.Get("/classes/{id}/attendance", s.handleClassAttendance)
			r.Post("/classes/{id}/attendance", s.handleSaveAttendance)

			r.Get("/subjects", s.handleListSubjects)
			r.Post("/subjects", s.handleCreateSubject)
			r.Put("/subjects/{id}", s.handleUpdateSubject)
			r.Delete("/subjects/{id}", s.handleDeleteSubject)

			r.Get("/structures", s.handleListStructures)
			r.Post("/structures", s.handleCreateStructure)
			r.Put("/structures/{id}", s.handleUpdateStructure)
			r.Delete("/structures/{id}", s.handleDeleteStructure)

			r.Get("/academic-years", s.handleListAcademicYears)
			r.Post("/academic-years", s.handleCreateAcademicYear)
			r.Get("/academic-years/current", s.handleCurrentAcademicYear)
			r.Post("/academic-years/{id}/current", s.handleSetCurrentAcademicYear)

			r.Get("/grades", s.handleListGrades)
			r.Post("/grades", s.handleSubmitGrade)
			r.Put("/grades/{id}", s.handleUpdateGrade)
			r.Delete("/grades/{id}", s.handleDeleteGrade)

			r.Get("/students/{id}/grades", s.handleStudentGrades)
			r.Get("/students/{id}/stats", s.handleStudentStats)
			r.Get("/students/{id}/rank", s.handleStudentRank)
			r.Get("/students/{id}/attendance", s.handleStudentAttendance)
			r.Get("/students/{id}/bulletin", s.handleBulletin)
			r.Get("/students/{id}/bulletin.pdf", s.handleBulletinPDF)

			r.Get("/announcements", s.handleAnnouncements)
			r.Get("/announcements/all", s.handleAllAnnouncements)
			r.Post("/announcements", s.handleCreateAnnouncement)
			r.Put("/announcements/{id}", s.handleUpdateAnnouncement)
			r.Delete("/announcements/{id}", s.handleDeleteAnnouncement)

			r.Get("/messages/inbox", s.handleInbox)
			r.Get("/messages/sent", s.handleSent)
			r.Get("/messages/unread", s.handleUnreadCount)
			r.Post("/messages", s.handleSendMessage)
			r.Get("/messages/{id}", s.handleReadMessage)

			r.Get("/audit", s.handleAuditLog)
		})
	})
	return r
}
