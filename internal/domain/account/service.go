package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/careslot/careslot/internal/platform/auth"
)

const bcryptCost = 12

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("account not found")
	ErrEmptyPatch         = errors.New("no fields to update")
)

// Service implements signup, login, and profile management.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

func NewService(repo Repository, jwtSecret []byte) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret}
}

// SignupInput carries a signup request. Doctor fields are ignored for
// patients.
type SignupInput struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	Role            string  `json:"role"`
	Specialization  *string `json:"specialization"`
	ConsultationFee *int64  `json:"consultationFee"`
	Experience      *int    `json:"experience"`
	About           *string `json:"about"`
	Photo           *string `json:"photo"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	if in.Role != RolePatient && in.Role != RoleDoctor {
		return nil, fmt.Errorf("role must be %q or %q", RolePatient, RoleDoctor)
	}
	if in.Role == RoleDoctor {
		if in.Specialization == nil || strings.TrimSpace(*in.Specialization) == "" {
			return nil, fmt.Errorf("specialization is required for doctors")
		}
		if in.ConsultationFee != nil && *in.ConsultationFee <= 0 {
			return nil, fmt.Errorf("consultation fee must be positive")
		}
	}

	// One email namespace across all roles.
	exists, err := s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if in.Role == RoleDoctor {
		a.Specialization = in.Specialization
		a.ConsultationFee = in.ConsultationFee
		a.Experience = in.Experience
		a.About = in.About
		a.Photo = in.Photo
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.IssueToken(s.jwtSecret, a.ID, a.Email, a.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, a, nil
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error) {
	accounts, total, err := s.repo.ListDoctors(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	profiles := make([]*DoctorProfile, 0, len(accounts))
	for _, a := range accounts {
		profiles = append(profiles, a.PublicProfile())
	}
	return profiles, total, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// UpdateProfile applies a partial update to the doctor's own profile.
func (s *Service) UpdateProfile(ctx context.Context, doctorID uuid.UUID, patch ProfilePatch) (*Account, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if patch.Specialization != nil && strings.TrimSpace(*patch.Specialization) == "" {
		return nil, fmt.Errorf("specialization cannot be empty")
	}
	if patch.ConsultationFee != nil && *patch.ConsultationFee <= 0 {
		return nil, fmt.Errorf("consultation fee must be positive")
	}
	if patch.Experience != nil && *patch.Experience < 0 {
		return nil, fmt.Errorf("experience cannot be negative")
	}

	if err := s.repo.UpdateProfile(ctx, doctorID, patch); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, doctorID)
}
