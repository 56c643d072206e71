package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	Admin   Role = "admin"
	Teacher Role = "teacher"
	Student Role = "student"
	Parent  Role = "parent"
)

// Roles lists every known role in display order.
var Roles = []Role{Admin, Teacher, Student, Parent}

// ParseRole is the only way a raw string becomes a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case Admin, Teacher, Student, Parent:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Label is the French display name used on documents and exports.
func (r Role) Label() string {
	switch r {
	case Admin:
		return "Administrateur"
	case Teacher:
		return "Professeur"
	case Student:
		return "Élève"
	case Parent:
		return "Parent"
	}
	return string(r)
}

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        *string    `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Matricule    *string    `json:"matricule,omitempty"`
	ClassID      *int64     `json:"class_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the username when no names are set.
func (u User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}
