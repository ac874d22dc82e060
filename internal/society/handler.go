package society

import (
	"errors"
	"fmt"

	"fintcs-backend/internal/audit"
	"fintcs-backend/internal/auth"
	"fintcs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SocietyResponse struct {
	ID                 uint               `json:"id"`
	SocietyName        string             `json:"society_name"`
	Address            string             `json:"address"`
	City               string             `json:"city"`
	Phone              string             `json:"phone"`
	Fax                string             `json:"fax"`
	Email              string             `json:"email"`
	Website            string             `json:"website"`
	RegistrationNumber string             `json:"registration_number"`
	Tabs               models.SocietyTabs `json:"tabs"`
	IsPendingApproval  bool               `json:"is_pending_approval"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

type UserApprovalResponse struct {
	UserID      uint    `json:"user_id"`
	Username    string  `json:"username"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	HasApproved bool    `json:"has_approved"`
	ApprovedAt  *string `json:"approved_at"`
	Status      string  `json:"status"`
}

func toSocietyResponse(s *models.Society) SocietyResponse {
	fields := s.Fields()
	return SocietyResponse{
		ID:                 s.ID,
		SocietyName:        fields.SocietyName,
		Address:            fields.Address,
		City:               fields.City,
		Phone:              fields.Phone,
		Fax:                fields.Fax,
		Email:              fields.Email,
		Website:            fields.Website,
		RegistrationNumber: fields.RegistrationNumber,
		Tabs:               fields.Tabs,
		IsPendingApproval:  s.IsPendingApproval,
		CreatedAt:          s.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:          s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toUserApprovalResponse(u UserApproval) UserApprovalResponse {
	status := "Pending"
	var approvedAt *string
	if u.HasApproved {
		status = "Approved"
		formatted := u.ApprovedAt.Format("2006-01-02 15:04:05")
		approvedAt = &formatted
	}
	return UserApprovalResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		HasApproved: u.HasApproved,
		ApprovedAt:  approvedAt,
		Status:      status,
	}
}

func GetSocietyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		soc, err := Get()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot load society configuration")
		}
		return c.JSON(toSocietyResponse(soc))
	}
}

func CreateSocietyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields models.SocietyFields
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		soc, err := Create(fields)
		if errors.Is(err, ErrAlreadyExists) {
			return fiber.NewError(fiber.StatusBadRequest, "Society already exists. Only one society is allowed in the system.")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot create society")
		}

		writeAudit(c, models.AuditActionCreate, "Society created", nil, soc.Fields())

		return c.Status(fiber.StatusCreated).JSON(toSocietyResponse(soc))
	}
}

func UpdateSocietyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields models.SocietyFields
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		res, err := Propose(fields)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot update society configuration")
		}

		if res.AppliedImmediately {
			writeAudit(c, models.AuditActionUpdate, "Society updated (no users to approve)", nil, fields)
			return c.JSON(fiber.Map{
				"applied_immediately": true,
				"message":             "Society updated successfully (no users to approve).",
			})
		}

		writeAudit(c, models.AuditActionPropose, "Society update submitted for approval", nil, fields)
		return c.JSON(fiber.Map{
			"applied_immediately": false,
			"required_approvals":  res.RequiredApprovals,
			"message": fmt.Sprintf(
				"Society update submitted for approval. All %d users must approve before changes become permanent.",
				res.RequiredApprovals),
		})
	}
}

func ApproveChangesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid user token")
		}

		res, err := Approve(userID)
		switch {
		case errors.Is(err, ErrUnknownUser):
			return fiber.NewError(fiber.StatusUnauthorized, "Unknown user")
		case errors.Is(err, ErrAdminApproval):
			return fiber.NewError(fiber.StatusBadRequest, "Administrators cannot approve their own changes.")
		case errors.Is(err, ErrNoPendingChange):
			return fiber.NewError(fiber.StatusBadRequest, "No pending changes to approve")
		case errors.Is(err, ErrAlreadyApproved):
			return fiber.NewError(fiber.StatusBadRequest, "You have already approved these changes.")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot record approval")
		}

		if res.Committed {
			writeAudit(c, models.AuditActionCommit, "All users approved, society changes applied", nil, nil)
			return c.JSON(fiber.Map{
				"committed": true,
				"message":   "All users approved. Changes applied successfully.",
			})
		}

		writeAudit(c, models.AuditActionApprove, "Society change approval recorded", nil, nil)
		return c.JSON(fiber.Map{
			"committed": false,
			"remaining": res.Remaining,
			"message":   fmt.Sprintf("Your approval is recorded. Waiting for %d more approvals.", res.Remaining),
		})
	}
}

func PendingChangesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := GetStatus()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot load pending changes")
		}

		if !status.HasPendingChanges {
			return c.JSON(fiber.Map{
				"has_pending_changes": false,
				"message":             "No pending changes",
			})
		}

		approvalStatus := make([]UserApprovalResponse, 0, len(status.Users))
		for _, u := range status.Users {
			approvalStatus = append(approvalStatus, toUserApprovalResponse(u))
		}

		return c.JSON(fiber.Map{
			"has_pending_changes": true,
			"pending_changes":     status.PendingChanges,
			"approval_status":     approvalStatus,
			"total_required":      status.TotalRequired,
			"approved_count":      status.ApprovedCount,
			"pending_count":       status.PendingCount,
		})
	}
}

// ApprovalStatusHandler is the admin view: the same data as pending-changes
// but split into approved and still-waiting user lists.
func ApprovalStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := GetStatus()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot load approval status")
		}

		if !status.HasPendingChanges {
			return c.JSON(fiber.Map{
				"has_pending_changes": false,
				"message":             "No pending changes requiring approval",
			})
		}

		approved := make([]UserApprovalResponse, 0)
		pending := make([]UserApprovalResponse, 0)
		all := make([]UserApprovalResponse, 0, len(status.Users))
		for _, u := range status.Users {
			entry := toUserApprovalResponse(u)
			all = append(all, entry)
			if u.HasApproved {
				approved = append(approved, entry)
			} else {
				pending = append(pending, entry)
			}
		}

		return c.JSON(fiber.Map{
			"has_pending_changes": true,
			"total_required":      status.TotalRequired,
			"approved_count":      status.ApprovedCount,
			"pending_count":       status.PendingCount,
			"approved_users":      approved,
			"pending_users":       pending,
			"all_users":           all,
			"pending_changes":     status.PendingChanges,
		})
	}
}

func writeAudit(c *fiber.Ctx, action models.AuditAction, description string, before, after any) {
	userID, _ := c.Locals(auth.CtxUserIDKey).(uint)
	username, _ := c.Locals(auth.CtxUsernameKey).(string)
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      userID,
		UserName:    username,
		EntityType:  "society",
		EntityID:    models.SocietyID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
}
