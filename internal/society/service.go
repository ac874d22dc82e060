package society

import (
	"errors"
	"fmt"
	"time"

	"fintcs-backend/internal/database"
	"fintcs-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyExists   = errors.New("society already exists")
	ErrNoPendingChange = errors.New("no pending changes to approve")
	ErrAlreadyApproved = errors.New("you have already approved these changes")
	ErrAdminApproval   = errors.New("administrators cannot approve their own changes")
	ErrUnknownUser     = errors.New("unknown user")
)

type ProposeResult struct {
	AppliedImmediately bool
	RequiredApprovals  int
}

type ApproveResult struct {
	Committed bool
	Remaining int
}

type UserApproval struct {
	UserID      uint
	Username    string
	Name        string
	Email       string
	HasApproved bool
	ApprovedAt  *time.Time
}

type Status struct {
	HasPendingChanges bool
	PendingChanges    *models.SocietyFields
	Users             []UserApproval
	TotalRequired     int
	ApprovedCount     int
	PendingCount      int
}

// lockSociety loads the singleton row under a row lock, creating it with
// default fields on first use. Every mutating path goes through this so the
// read-count-commit sequence in Approve is serialized per society.
func lockSociety(tx *gorm.DB) (*models.Society, error) {
	var soc models.Society
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&soc, "id = ?", models.SocietyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		soc = models.Society{ID: models.SocietyID, Tabs: "{}", PendingChanges: "{}"}
		if err := tx.Create(&soc).Error; err != nil {
			return nil, fmt.Errorf("cannot create society row: %w", err)
		}
		return &soc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load society: %w", err)
	}
	return &soc, nil
}

func countNonAdmins(tx *gorm.DB) (int, error) {
	var n int64
	err := tx.Model(&models.User{}).
		Where("role <> ?", models.RoleAdmin).
		Count(&n).Error
	return int(n), err
}

// Get returns the committed society row. When none exists yet a zero-value
// row is returned so callers see default configuration.
func Get() (*models.Society, error) {
	var soc models.Society
	err := database.DB.First(&soc, "id = ?", models.SocietyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Society{ID: models.SocietyID, Tabs: "{}", PendingChanges: "{}"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load society: %w", err)
	}
	return &soc, nil
}

// Create inserts the singleton row with the given fields. The fixed primary
// key makes a second create fail inside the database, not on a count check.
func Create(fields models.SocietyFields) (*models.Society, error) {
	soc := models.Society{ID: models.SocietyID, PendingChanges: "{}"}
	if err := soc.ApplyFields(fields); err != nil {
		return nil, fmt.Errorf("cannot serialize society fields: %w", err)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Society{}).
			Where("id = ?", models.SocietyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(&soc).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("cannot create society: %w", err)
	}
	return &soc, nil
}

// Propose stages a new configuration for approval. Approvals from any prior
// round are wiped so they cannot count toward this one. When there is nobody
// to approve, the change is applied directly.
func Propose(fields models.SocietyFields) (*ProposeResult, error) {
	var res ProposeResult

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		soc, err := lockSociety(tx)
		if err != nil {
			return err
		}

		approvers, err := countNonAdmins(tx)
		if err != nil {
			return err
		}

		if approvers == 0 {
			if err := soc.ApplyFields(fields); err != nil {
				return err
			}
			soc.ClearPending()
			if err := tx.Save(soc).Error; err != nil {
				return err
			}
			res = ProposeResult{AppliedImmediately: true}
			return nil
		}

		if err := soc.StagePending(fields); err != nil {
			return err
		}
		soc.RequiredApprovals = approvers
		if err := tx.Save(soc).Error; err != nil {
			return err
		}

		// Round reset: stale approvals must not count toward the new round.
		if err := tx.Where("society_id = ?", soc.ID).
			Delete(&models.SocietyApproval{}).Error; err != nil {
			return err
		}

		res = ProposeResult{RequiredApprovals: approvers}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Approve records one user's approval and commits the staged change once the
// approval count reaches the snapshot taken at propose time. The entire
// sequence runs in a single transaction holding the society row lock, so two
// concurrent final approvers cannot both commit.
func Approve(userID uint) (*ApproveResult, error) {
	var res ApproveResult

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownUser
			}
			return err
		}
		if user.Role == models.RoleAdmin {
			return ErrAdminApproval
		}

		var soc models.Society
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&soc, "id = ?", models.SocietyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPendingChange
		}
		if err != nil {
			return err
		}
		if !soc.IsPendingApproval {
			return ErrNoPendingChange
		}

		var existing int64
		if err := tx.Model(&models.SocietyApproval{}).
			Where("society_id = ? AND user_id = ?", soc.ID, user.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyApproved
		}

		approval := models.SocietyApproval{
			SocietyID:  soc.ID,
			UserID:     user.ID,
			ApprovedAt: time.Now().UTC(),
		}
		if err := tx.Create(&approval).Error; err != nil {
			return err
		}

		var approved int64
		if err := tx.Model(&models.SocietyApproval{}).
			Where("society_id = ?", soc.ID).
			Count(&approved).Error; err != nil {
			return err
		}

		if int(approved) >= soc.RequiredApprovals {
			fields, err := soc.PendingFields()
			if err != nil {
				return fmt.Errorf("cannot deserialize pending changes: %w", err)
			}
			if err := soc.ApplyFields(fields); err != nil {
				return err
			}
			soc.ClearPending()
			if err := tx.Save(&soc).Error; err != nil {
				return err
			}
			res = ApproveResult{Committed: true}
			return nil
		}

		res = ApproveResult{Remaining: soc.RequiredApprovals - int(approved)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetStatus reports the outstanding round: one entry per non-admin user with
// their approval state, plus aggregate totals. The per-user list follows the
// live roster; the required total is the snapshot from propose time.
func GetStatus() (*Status, error) {
	var soc models.Society
	err := database.DB.First(&soc, "id = ?", models.SocietyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !soc.IsPendingApproval) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load society: %w", err)
	}

	var users []models.User
	if err := database.DB.
		Where("role <> ?", models.RoleAdmin).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("cannot load approvers: %w", err)
	}

	var approvals []models.SocietyApproval
	if err := database.DB.
		Where("society_id = ?", soc.ID).
		Find(&approvals).Error; err != nil {
		return nil, fmt.Errorf("cannot load approvals: %w", err)
	}

	byUser := make(map[uint]models.SocietyApproval, len(approvals))
	for _, a := range approvals {
		byUser[a.UserID] = a
	}

	status := &Status{
		HasPendingChanges: true,
		TotalRequired:     soc.RequiredApprovals,
		ApprovedCount:     len(approvals),
		Users:             make([]UserApproval, 0, len(users)),
	}
	if pending := soc.RequiredApprovals - len(approvals); pending > 0 {
		status.PendingCount = pending
	}

	fields, err := soc.PendingFields()
	if err != nil {
		return nil, fmt.Errorf("cannot deserialize pending changes: %w", err)
	}
	status.PendingChanges = &fields

	for _, u := range users {
		entry := UserApproval{
			UserID:   u.ID,
			Username: u.Username,
			Name:     u.Name,
			Email:    u.Email,
		}
		if a, ok := byUser[u.ID]; ok {
			entry.HasApproved = true
			at := a.ApprovedAt
			entry.ApprovedAt = &at
		}
		status.Users = append(status.Users, entry)
	}

	return status, nil
}
