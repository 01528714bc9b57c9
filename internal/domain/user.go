package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid user roles
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

var validRoles = map[string]bool{
	RolePatient: true,
	RoleDoctor:  true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// Profile is the role-discriminated registration payload. Exactly one of
// Patient or Doctor is set, matching Role.
type Profile struct {
	Role    string          `json:"role"`
	Patient *PatientProfile `json:"patient,omitempty"`
	Doctor  *DoctorProfile  `json:"doctor,omitempty"`
}

type PatientProfile struct {
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
}

type DoctorProfile struct {
	Phone             string `json:"phone"`
	Specialization    string `json:"specialization"`
	LicenseNumber     string `json:"license_number"`
	YearsOfExperience int    `json:"years_of_experience"`
}

func (p *Profile) Validate() error {
	if !IsValidRole(p.Role) {
		return fmt.Errorf("invalid role")
	}
	switch p.Role {
	case RolePatient:
		if p.Patient == nil {
			return fmt.Errorf("patient profile is required")
		}
		if p.Doctor != nil {
			return fmt.Errorf("doctor profile not allowed for patient role")
		}
	case RoleDoctor:
		if p.Doctor == nil {
			return fmt.Errorf("doctor profile is required")
		}
		if p.Patient != nil {
			return fmt.Errorf("patient profile not allowed for doctor role")
		}
	}
	return nil
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Role     string  `json:"role"`
	Profile  Profile `json:"profile"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Name              *string `json:"name,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	DateOfBirth       *string `json:"date_of_birth,omitempty"`
	Address           *string `json:"address,omitempty"`
	Specialization    *string `json:"specialization,omitempty"`
	LicenseNumber     *string `json:"license_number,omitempty"`
	YearsOfExperience *int    `json:"years_of_experience,omitempty"`
}

func (u *ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.DateOfBirth == nil &&
		u.Address == nil && u.Specialization == nil &&
		u.LicenseNumber == nil && u.YearsOfExperience == nil
}

// Validation methods
func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	if !IsValidRole(r.Role) {
		return fmt.Errorf("invalid role")
	}
	if r.Profile.Role != r.Role {
		return fmt.Errorf("profile role does not match requested role")
	}
	if err := r.Profile.Validate(); err != nil {
		return err
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// Normalize methods
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Helper functions
func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
