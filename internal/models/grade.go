package models

import "time"

// Grade is one (student, subject, period) line. Average, WeightedAverage
// and Appreciation are derived from the inputs on every write.
type Grade struct {
	ID              int64     `json:"id"`
	StudentID       int64     `json:"student_id"`
	SubjectName     string    `json:"subject_name"`
	Period          string    `json:"period"`
	MoyCl           float64   `json:"moy_cl"`
	NCompo          float64   `json:"n_compo"`
	Coef            float64   `json:"coef"`
	Average         float64   `json:"average"`
	WeightedAverage float64   `json:"weighted_average"`
	Appreciation    string    `json:"appreciation"`
	TeacherID       *int64    `json:"teacher_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GradeWithStudent is a grade joined with its student for listings.
type GradeWithStudent struct {
	Grade
	StudentName string `json:"student_name"`
	ClassID     *int64 `json:"class_id,omitempty"`
}
