package models

import "time"

// Student represents a learner registered in a school.
type Student struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     string     `db:"school_id" json:"school_id"`
	FullName     string     `db:"full_name" json:"full_name"`
	CPF          string     `db:"cpf" json:"cpf"`
	RG           string     `db:"rg" json:"rg"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender       string     `db:"gender" json:"gender"`
	Nationality  string     `db:"nationality" json:"nationality"`
	Birthplace   string     `db:"birthplace" json:"birthplace"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	Address      string     `db:"address" json:"address"`
	City         string     `db:"city" json:"city"`
	State        string     `db:"state" json:"state"`
	ZipCode      string     `db:"zip_code" json:"zip_code"`
	BloodType    string     `db:"blood_type" json:"blood_type"`
	Allergies    string     `db:"allergies" json:"allergies"`
	Medications  string     `db:"medications" json:"medications"`
	SpecialNeeds string     `db:"special_needs" json:"special_needs"`
	HealthNotes  string     `db:"health_notes" json:"health_notes"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Guardian is a person responsible for a student.
type Guardian struct {
	ID           string `db:"id" json:"id"`
	StudentID    string `db:"student_id" json:"student_id"`
	FullName     string `db:"full_name" json:"full_name"`
	Relationship string `db:"relationship" json:"relationship"`
	CPF          string `db:"cpf" json:"cpf"`
	Phone        string `db:"phone" json:"phone"`
	Email        string `db:"email" json:"email"`
	IsPrimary    bool   `db:"is_primary" json:"is_primary"`
}

// PrimaryGuardian returns the guardian flagged as primary, else the first one.
func PrimaryGuardian(guardians []Guardian) *Guardian {
	if len(guardians) == 0 {
		return nil
	}
	for i := range guardians {
		if guardians[i].IsPrimary {
			return &guardians[i]
		}
	}
	return &guardians[0]
}
