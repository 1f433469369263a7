package models

import "time"

// TeacherSubject links a teacher to a subject they are assigned to teach.
// The (teacher, subject) pair is unique.
type TeacherSubject struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	AssignedDate time.Time `db:"assigned_date" json:"assigned_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubjectDetail enriches pairings with descriptive fields for list views.
type TeacherSubjectDetail struct {
	TeacherSubject
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	Semester    int    `db:"semester" json:"semester"`
}
