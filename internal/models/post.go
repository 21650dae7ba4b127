package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Sort keys accepted by the tutor search. Anything else falls back to newest.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Availability maps weekday keys ("monday".."sunday") to whether the tutor is
// available that day. Stored as a JSONB blob; no ordering semantics.
type Availability map[string]bool

// Value implements driver.Valuer for JSONB storage.
func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (a *Availability) Scan(src interface{}) error {
	if src == nil {
		*a = Availability{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// TutorPost is a tutor's public listing.
type TutorPost struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	DisplayName  string       `db:"display_name" json:"display_name"`
	Bio          string       `db:"bio" json:"bio"`
	HourlyRate   float64      `db:"hourly_rate" json:"hourly_rate"`
	ContactInfo  string       `db:"contact_info" json:"contact_info"`
	Experience   *string      `db:"experience" json:"experience,omitempty"`
	Availability Availability `db:"availability" json:"availability"`
	ProfilePhoto *string      `db:"profile_photo" json:"profile_photo,omitempty"`
	ProfileVideo *string      `db:"profile_video" json:"profile_video,omitempty"`
	ResumePDF    *string      `db:"resume_pdf" json:"resume_pdf,omitempty"`
	Approved     bool         `db:"approved" json:"approved"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// TutorPostView is a listing joined with its owner's email and subjects,
// shaped for search results and detail pages.
type TutorPostView struct {
	TutorPost
	OwnerEmail string    `db:"owner_email" json:"owner_email"`
	Subjects   []Subject `json:"subjects"`
}

// TutorPostFilter captures the optional search parameters. Nil/zero fields
// impose no constraint; every supplied field narrows the result set.
type TutorPostFilter struct {
	TextQuery    string
	SubjectName  string
	MinRate      *float64
	MaxRate      *float64
	ApprovedOnly bool
	Sort         string
	Page         int
	PageSize     int
}

// SearchResult is the search response envelope.
type SearchResult struct {
	Posts      []TutorPostView `json:"posts"`
	Pagination Pagination      `json:"pagination"`
}
