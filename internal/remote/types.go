package remote

import (
	"context"

	"github.com/phrazzld/medinodus/internal/domain"
)

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// FullName is set by deployments that return the account's display name.
	FullName string `json:"full_name,omitempty"`
}

// MedicalHistory is the backend's shape of the medical profile.
type MedicalHistory struct {
	ChronicCondition  string `json:"chronic_condition"`
	Allergy           string `json:"allergy"`
	CurrentMedication string `json:"current_medication"`
}

// ToProfile maps the backend field names to the client's.
func (h MedicalHistory) ToProfile() domain.MedicalProfile {
	return domain.MedicalProfile{
		Conditions:  h.ChronicCondition,
		Allergies:   h.Allergy,
		Medications: h.CurrentMedication,
	}
}

// MedicalHistoryFromProfile maps the client field names to the backend's.
func MedicalHistoryFromProfile(p domain.MedicalProfile) MedicalHistory {
	return MedicalHistory{
		ChronicCondition:  p.Conditions,
		Allergy:           p.Allergies,
		CurrentMedication: p.Medications,
	}
}

// AuthService is the remote authentication contract.
type AuthService interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, email, password, fullName string) error
	// Logout invalidates token. It is idempotent from the caller's side.
	Logout(ctx context.Context, token string) error
}

// MedicalService is the remote medical history contract.
type MedicalService interface {
	// GetMedicalHistory returns ErrNotFound when no record exists yet.
	GetMedicalHistory(ctx context.Context, token string) (MedicalHistory, error)
	UpdateMedicalHistory(ctx context.Context, token string, history MedicalHistory) error
}
