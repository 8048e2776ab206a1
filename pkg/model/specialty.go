package model

// Specialty is the service category a caregiver offers and a careseeker books.
type Specialty string

const (
	SpecialtyChildCare    Specialty = "child_care"
	SpecialtySeniorCare   Specialty = "senior_care"
	SpecialtyHousekeeping Specialty = "housekeeping"
	SpecialtyPetCare      Specialty = "pet_care"
	SpecialtyTutoring     Specialty = "tutoring"
	SpecialtyOther        Specialty = "other"
)

// Specialties lists every valid specialty, in display order.
var Specialties = []Specialty{
	SpecialtyChildCare,
	SpecialtySeniorCare,
	SpecialtyHousekeeping,
	SpecialtyPetCare,
	SpecialtyTutoring,
	SpecialtyOther,
}

func (s Specialty) Valid() bool {
	switch s {
	case SpecialtyChildCare, SpecialtySeniorCare, SpecialtyHousekeeping,
		SpecialtyPetCare, SpecialtyTutoring, SpecialtyOther:
		return true
	}
	return false
}
