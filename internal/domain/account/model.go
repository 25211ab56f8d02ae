package account

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Account is a credential record for a patient, doctor, or admin.
// Doctor-only fields are nil for other roles.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Specialization *string   `json:"specialization,omitempty"`
	ConsultationFee *int64   `json:"consultationFee,omitempty"`
	Experience     *int      `json:"experience,omitempty"`
	About          *string   `json:"about,omitempty"`
	Photo          *string   `json:"photo,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DoctorProfile is the public directory view of a doctor.
type DoctorProfile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Specialization  string    `json:"specialization"`
	Experience      int       `json:"experience"`
	About           string    `json:"about"`
	Photo           string    `json:"photo"`
	ConsultationFee int64     `json:"consultationFee"`
}

func (a *Account) PublicProfile() *DoctorProfile {
	p := &DoctorProfile{ID: a.ID, Name: a.Name}
	if a.Specialization != nil {
		p.Specialization = *a.Specialization
	}
	if a.Experience != nil {
		p.Experience = *a.Experience
	}
	if a.About != nil {
		p.About = *a.About
	}
	if a.Photo != nil {
		p.Photo = *a.Photo
	}
	if a.ConsultationFee != nil {
		p.ConsultationFee = *a.ConsultationFee
	}
	return p
}

// ProfilePatch is an explicit partial update of a doctor profile. Only
// non-nil fields are applied.
type ProfilePatch struct {
	Name            *string `json:"name"`
	Specialization  *string `json:"specialization"`
	About           *string `json:"about"`
	ConsultationFee *int64  `json:"consultationFee"`
	Experience      *int    `json:"experience"`
	Photo           *string `json:"photo"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Specialization == nil && p.About == nil &&
		p.ConsultationFee == nil && p.Experience == nil && p.Photo == nil
}
