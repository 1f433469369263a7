package models

import "time"

// Subject represents an academic subject taught in one semester.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Semester  int       `db:"semester" json:"semester"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Semester  *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
