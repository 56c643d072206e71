package models

import "time"

type SchoolClass struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Level         string    `json:"level,omitempty"`
	Section       string    `json:"section,omitempty"`
	Description   string    `json:"description,omitempty"`
	Capacity      int       `json:"capacity"`
	MainTeacherID *int64    `json:"main_teacher_id,omitempty"`
	StudentCount  int       `json:"student_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const DefaultClassCapacity = 50

type Subject struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	DefaultCoef float64 `json:"default_coef"`
	IsActive    bool    `json:"is_active"`
}

// BulletinStructure fixes which subjects appear on a class's report card
// and in which order. Part 1 holds the main subjects, part 2 the others.
type BulletinStructure struct {
	ID            int64     `json:"id"`
	ClassID       int64     `json:"class_id"`
	SchoolName    string    `json:"school_name,omitempty"`
	SubjectsPart1 []string  `json:"subjects_part1"`
	SubjectsPart2 []string  `json:"subjects_part2"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
