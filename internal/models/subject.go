package models

// Subject is a catalog entry tutors attach to their listings. The catalog is
// seeded reference data and is effectively immutable at runtime.
type Subject struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ActiveSubject is a subject with at least one live tutor listing.
type ActiveSubject struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	TutorCount int    `db:"tutor_count" json:"tutor_count"`
}
