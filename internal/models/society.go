package models

import (
	"encoding/json"
	"time"
)

// SocietyID is the fixed primary key of the single society row. The society
// is a singleton resource; every read and write goes through this key.
const SocietyID uint = 1

type InterestRates struct {
	Dividend      float64 `json:"dividend"`
	OD            float64 `json:"od"`
	CD            float64 `json:"cd"`
	Loan          float64 `json:"loan"`
	EmergencyLoan float64 `json:"emergency_loan"`
	LAS           float64 `json:"las"`
}

type LendingLimits struct {
	Share         float64 `json:"share"`
	Loan          float64 `json:"loan"`
	EmergencyLoan float64 `json:"emergency_loan"`
}

type SocietyTabs struct {
	Interest InterestRates `json:"interest"`
	Limit    LendingLimits `json:"limit"`
}

// SocietyFields is the complete editable field set of the society
// configuration. It is the unit of staging: a proposed change always
// carries every field, and a commit overwrites every field.
type SocietyFields struct {
	SocietyName        string      `json:"society_name"`
	Address            string      `json:"address"`
	City               string      `json:"city"`
	Phone              string      `json:"phone"`
	Fax                string      `json:"fax"`
	Email              string      `json:"email"`
	Website            string      `json:"website"`
	RegistrationNumber string      `json:"registration_number"`
	Tabs               SocietyTabs `json:"tabs"`
}

type Society struct {
	ID                 uint   `gorm:"primaryKey"`
	SocietyName        string `gorm:"size:255"`
	Address            string `gorm:"size:255"`
	City               string `gorm:"size:100"`
	Phone              string `gorm:"size:30"`
	Fax                string `gorm:"size:30"`
	Email              string `gorm:"size:100"`
	Website            string `gorm:"size:255"`
	RegistrationNumber string `gorm:"size:100"`

	// Serialized SocietyTabs. Only the storage boundary sees this string;
	// callers use Fields / ApplyFields.
	Tabs string `gorm:"default:'{}'"`

	IsPendingApproval bool
	// Serialized SocietyFields of the outstanding proposal, "{}" when none.
	PendingChanges string `gorm:"default:'{}'"`
	// Non-admin roster size captured when the proposal was staged. Unanimity
	// is checked against this snapshot, not the live roster.
	RequiredApprovals int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the committed configuration as a typed value.
func (s *Society) Fields() SocietyFields {
	f := SocietyFields{
		SocietyName:        s.SocietyName,
		Address:            s.Address,
		City:               s.City,
		Phone:              s.Phone,
		Fax:                s.Fax,
		Email:              s.Email,
		Website:            s.Website,
		RegistrationNumber: s.RegistrationNumber,
	}
	if s.Tabs != "" {
		_ = json.Unmarshal([]byte(s.Tabs), &f.Tabs)
	}
	return f
}

// ApplyFields overwrites every committed field with f.
func (s *Society) ApplyFields(f SocietyFields) error {
	tabs, err := json.Marshal(f.Tabs)
	if err != nil {
		return err
	}
	s.SocietyName = f.SocietyName
	s.Address = f.Address
	s.City = f.City
	s.Phone = f.Phone
	s.Fax = f.Fax
	s.Email = f.Email
	s.Website = f.Website
	s.RegistrationNumber = f.RegistrationNumber
	s.Tabs = string(tabs)
	return nil
}

// StagePending serializes f into the pending slot and marks the row as
// awaiting approval. RequiredApprovals is set by the caller.
func (s *Society) StagePending(f SocietyFields) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.PendingChanges = string(raw)
	s.IsPendingApproval = true
	return nil
}

// PendingFields deserializes the staged proposal.
func (s *Society) PendingFields() (SocietyFields, error) {
	var f SocietyFields
	err := json.Unmarshal([]byte(s.PendingChanges), &f)
	return f, err
}

// ClearPending resets the row to the stable state. Callers must also delete
// the approval rows when discarding a round.
func (s *Society) ClearPending() {
	s.PendingChanges = "{}"
	s.IsPendingApproval = false
	s.RequiredApprovals = 0
}
