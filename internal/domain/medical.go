package domain

// MedicalProfile is the user's self-reported medical context. The local copy
// is authoritative until the backend confirms or replaces it.
type MedicalProfile struct {
	Conditions  string `json:"conditions"`
	Allergies   string `json:"allergies"`
	Medications string `json:"medications"`
}

// MedicalPatch is a partial update to a MedicalProfile.
// Nil fields are left unchanged when the patch is applied.
type MedicalPatch struct {
	Conditions  *string `json:"conditions,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
	Medications *string `json:"medications,omitempty"`
}

// IsZero reports whether every field of the profile is empty.
func (m MedicalProfile) IsZero() bool {
	return m == MedicalProfile{}
}

// Apply returns a copy of the profile with the patch merged over it.
func (m MedicalProfile) Apply(p MedicalPatch) MedicalProfile {
	if p.Conditions != nil {
		m.Conditions = *p.Conditions
	}
	if p.Allergies != nil {
		m.Allergies = *p.Allergies
	}
	if p.Medications != nil {
		m.Medications = *p.Medications
	}
	return m
}

// Empty reports whether the patch would change nothing.
func (p MedicalPatch) Empty() bool {
	return p.Conditions == nil && p.Allergies == nil && p.Medications == nil
}
