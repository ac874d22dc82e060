package models

import "time"

// SocietyApproval records one user's approval of the outstanding society
// change round. Existence of a row is the approval; rows are created when a
// user approves and bulk-deleted when a new round is staged, never updated.
type SocietyApproval struct {
	ID         uint `gorm:"primaryKey"`
	SocietyID  uint `gorm:"not null;uniqueIndex:idx_society_approvals_round"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_society_approvals_round"`
	ApprovedAt time.Time
}
