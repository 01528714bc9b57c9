package domain

import (
	"strings"
	"testing"
)

func patientRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Role:     RolePatient,
		Profile: Profile{
			Role: RolePatient,
			Patient: &PatientProfile{
				Phone:       "+1234567890",
				DateOfBirth: "1990-04-12",
				Address:     "12 Main St",
			},
		},
	}
}

func doctorRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:    "d@x.com",
		FullName: "Dr. X",
		Role:     RoleDoctor,
		Profile: Profile{
			Role: RoleDoctor,
			Doctor: &DoctorProfile{
				Phone:             "+1234567890",
				Specialization:    "Cardiology",
				LicenseNumber:     "LIC-42",
				YearsOfExperience: 11,
			},
		},
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr string
	}{
		{"valid patient", func(r *RegisterRequest) {}, ""},
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, "email is required"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "invalid email format"},
		{"missing name", func(r *RegisterRequest) { r.FullName = "" }, "full name is required"},
		{"bad role", func(r *RegisterRequest) { r.Role = "admin" }, "invalid role"},
		{
			"role mismatch",
			func(r *RegisterRequest) { r.Role = RoleDoctor },
			"profile role does not match requested role",
		},
		{
			"missing patient profile",
			func(r *RegisterRequest) { r.Profile.Patient = nil },
			"patient profile is required",
		},
		{
			"both profile shapes",
			func(r *RegisterRequest) { r.Profile.Doctor = &DoctorProfile{} },
			"doctor profile not allowed for patient role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := patientRequest()
			tt.mutate(req)

			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegisterRequest_Validate_Doctor(t *testing.T) {
	req := doctorRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid doctor request, got %v", err)
	}

	req.Profile.Doctor = nil
	if err := req.Validate(); err == nil || err.Error() != "doctor profile is required" {
		t.Fatalf("expected missing doctor profile error, got %v", err)
	}

	req = doctorRequest()
	req.Profile.Patient = &PatientProfile{}
	if err := req.Validate(); err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected exclusivity error, got %v", err)
	}
}

func TestRegisterRequest_Normalize(t *testing.T) {
	req := patientRequest()
	req.Email = "  Jane@Example.COM "
	req.FullName = "  Jane Doe  "

	req.Normalize()

	if req.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", req.Email)
	}
	if req.FullName != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", req.FullName)
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	req := &LoginRequest{Email: "a@b.com"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid login request, got %v", err)
	}

	req.Email = ""
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	var u ProfileUpdate
	if !u.IsEmpty() {
		t.Fatal("zero update should be empty")
	}

	phone := "+1999"
	u.Phone = &phone
	if u.IsEmpty() {
		t.Fatal("update with a field set should not be empty")
	}
}
