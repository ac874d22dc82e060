package models

import (
	"encoding/json"
	"time"
)

type BankingDetails struct {
	BankName          string `json:"bank_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	BranchName        string `json:"branch_name"`
	AccountHolderName string `json:"account_holder_name"`
}

// MemberFields is the editable field set of a member record, staged as a
// whole when an update awaits approval.
type MemberFields struct {
	Name             string         `json:"name"`
	FHName           string         `json:"fh_name"`
	OfficeAddress    string         `json:"office_address"`
	City             string         `json:"city"`
	PhoneOffice      string         `json:"phone_office"`
	Branch           string         `json:"branch"`
	PhoneRes         string         `json:"phone_res"`
	Mobile           string         `json:"mobile"`
	Designation      string         `json:"designation"`
	ResidenceAddress string         `json:"residence_address"`
	DOB              time.Time      `json:"dob"`
	DOJSociety       time.Time      `json:"doj_society"`
	Email            string         `json:"email"`
	DOJOrg           time.Time      `json:"doj_org"`
	DOR              *time.Time     `json:"dor"`
	Nominee          string         `json:"nominee"`
	NomineeRelation  string         `json:"nominee_relation"`
	BankingDetails   BankingDetails `json:"banking_details"`
}

type Member struct {
	ID    uint   `gorm:"primaryKey"`
	MemNo string `gorm:"size:20;uniqueIndex;not null"`

	Name             string `gorm:"size:100;not null"`
	FHName           string `gorm:"size:100"`
	OfficeAddress    string `gorm:"size:255"`
	City             string `gorm:"size:100"`
	PhoneOffice      string `gorm:"size:30"`
	Branch           string `gorm:"size:100"`
	PhoneRes         string `gorm:"size:30"`
	Mobile           string `gorm:"size:30"`
	Designation      string `gorm:"size:100"`
	ResidenceAddress string `gorm:"size:255"`

	DOB        time.Time
	DOJSociety time.Time
	Email      string `gorm:"size:100"`
	DOJOrg     time.Time
	DOR        *time.Time // nil while the member is active

	Nominee         string `gorm:"size:100"`
	NomineeRelation string `gorm:"size:50"`

	// Serialized BankingDetails.
	BankingDetails string `gorm:"default:'{}'"`

	IsPendingApproval bool
	// Serialized MemberFields of a staged update, "{}" when none.
	PendingChanges string `gorm:"default:'{}'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Member) Banking() BankingDetails {
	var b BankingDetails
	if m.BankingDetails != "" {
		_ = json.Unmarshal([]byte(m.BankingDetails), &b)
	}
	return b
}

func (m *Member) Fields() MemberFields {
	return MemberFields{
		Name:             m.Name,
		FHName:           m.FHName,
		OfficeAddress:    m.OfficeAddress,
		City:             m.City,
		PhoneOffice:      m.PhoneOffice,
		Branch:           m.Branch,
		PhoneRes:         m.PhoneRes,
		Mobile:           m.Mobile,
		Designation:      m.Designation,
		ResidenceAddress: m.ResidenceAddress,
		DOB:              m.DOB,
		DOJSociety:       m.DOJSociety,
		Email:            m.Email,
		DOJOrg:           m.DOJOrg,
		DOR:              m.DOR,
		Nominee:          m.Nominee,
		NomineeRelation:  m.NomineeRelation,
		BankingDetails:   m.Banking(),
	}
}

func (m *Member) ApplyFields(f MemberFields) error {
	banking, err := json.Marshal(f.BankingDetails)
	if err != nil {
		return err
	}
	m.Name = f.Name
	m.FHName = f.FHName
	m.OfficeAddress = f.OfficeAddress
	m.City = f.City
	m.PhoneOffice = f.PhoneOffice
	m.Branch = f.Branch
	m.PhoneRes = f.PhoneRes
	m.Mobile = f.Mobile
	m.Designation = f.Designation
	m.ResidenceAddress = f.ResidenceAddress
	m.DOB = f.DOB
	m.DOJSociety = f.DOJSociety
	m.Email = f.Email
	m.DOJOrg = f.DOJOrg
	m.DOR = f.DOR
	m.Nominee = f.Nominee
	m.NomineeRelation = f.NomineeRelation
	m.BankingDetails = string(banking)
	return nil
}

func (m *Member) StagePending(f MemberFields) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	m.PendingChanges = string(raw)
	m.IsPendingApproval = true
	return nil
}

func (m *Member) PendingFields() (MemberFields, error) {
	var f MemberFields
	err := json.Unmarshal([]byte(m.PendingChanges), &f)
	return f, err
}

func (m *Member) ClearPending() {
	m.PendingChanges = "{}"
	m.IsPendingApproval = false
}
