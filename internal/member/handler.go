package member

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintcs-backend/internal/audit"
	"fintcs-backend/internal/auth"
	"fintcs-backend/internal/database"
	"fintcs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MemberResponse struct {
	ID                uint                  `json:"id"`
	MemNo             string                `json:"mem_no"`
	Name              string                `json:"name"`
	FHName            string                `json:"fh_name"`
	OfficeAddress     string                `json:"office_address"`
	City              string                `json:"city"`
	PhoneOffice       string                `json:"phone_office"`
	Branch            string                `json:"branch"`
	PhoneRes          string                `json:"phone_res"`
	Mobile            string                `json:"mobile"`
	Designation       string                `json:"designation"`
	ResidenceAddress  string                `json:"residence_address"`
	DOB               time.Time             `json:"dob"`
	DOJSociety        time.Time             `json:"doj_society"`
	Email             string                `json:"email"`
	DOJOrg            time.Time             `json:"doj_org"`
	DOR               *time.Time            `json:"dor"`
	Nominee           string                `json:"nominee"`
	NomineeRelation   string                `json:"nominee_relation"`
	BankingDetails    models.BankingDetails `json:"banking_details"`
	IsPendingApproval bool                  `json:"is_pending_approval"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
}

func toMemberResponse(m *models.Member) MemberResponse {
	return MemberResponse{
		ID:                m.ID,
		MemNo:             m.MemNo,
		Name:              m.Name,
		FHName:            m.FHName,
		OfficeAddress:     m.OfficeAddress,
		City:              m.City,
		PhoneOffice:       m.PhoneOffice,
		Branch:            m.Branch,
		PhoneRes:          m.PhoneRes,
		Mobile:            m.Mobile,
		Designation:       m.Designation,
		ResidenceAddress:  m.ResidenceAddress,
		DOB:               m.DOB,
		DOJSociety:        m.DOJSociety,
		Email:             m.Email,
		DOJOrg:            m.DOJOrg,
		DOR:               m.DOR,
		Nominee:           m.Nominee,
		NomineeRelation:   m.NomineeRelation,
		BankingDetails:    m.Banking(),
		IsPendingApproval: m.IsPendingApproval,
		CreatedAt:         m.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         m.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// nextMemNo generates the next member number (MEM_001, MEM_002, ...) from
// the most recent row.
func nextMemNo(tx *gorm.DB) (string, error) {
	var last models.Member
	err := tx.Order("id DESC").First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	next := 1
	if err == nil && last.MemNo != "" {
		suffix := strings.TrimPrefix(last.MemNo, "MEM_")
		if n, convErr := strconv.Atoi(suffix); convErr == nil {
			next = n + 1
		}
	}

	return fmt.Sprintf("MEM_%03d", next), nil
}

func ListMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var members []models.Member
		if err := database.DB.Order("mem_no").Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot list members")
		}

		res := make([]MemberResponse, 0, len(members))
		for i := range members {
			res = append(res, toMemberResponse(&members[i]))
		}
		return c.JSON(res)
	}
}

func GetMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.Member
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Member not found")
		}

		return c.JSON(toMemberResponse(&member))
	}
}

func CreateMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields models.MemberFields
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		fields.Name = strings.TrimSpace(fields.Name)
		if fields.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Member name is required")
		}

		var member models.Member
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			memNo, err := nextMemNo(tx)
			if err != nil {
				return err
			}
			member = models.Member{MemNo: memNo, PendingChanges: "{}"}
			if err := member.ApplyFields(fields); err != nil {
				return err
			}
			return tx.Create(&member).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot create member")
		}

		writeAudit(c, models.AuditActionCreate, member.ID, fmt.Sprintf("Member %s created", member.MemNo), nil, fields)

		return c.Status(fiber.StatusCreated).JSON(toMemberResponse(&member))
	}
}

// UpdateMemberHandler stages the new field set; it becomes effective only
// after approve-changes.
func UpdateMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.Member
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Member not found")
		}

		var fields models.MemberFields
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := member.StagePending(fields); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot stage member changes")
		}
		if err := database.DB.Save(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot update member")
		}

		writeAudit(c, models.AuditActionPropose, member.ID, fmt.Sprintf("Member %s update submitted for approval", member.MemNo), nil, fields)

		return c.JSON(fiber.Map{
			"message": "Member update submitted for approval.",
		})
	}
}

func ApproveChangesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.Member
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Member not found")
		}

		if !member.IsPendingApproval {
			return fiber.NewError(fiber.StatusBadRequest, "No pending changes to approve for this member")
		}

		before := member.Fields()

		fields, err := member.PendingFields()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot read pending changes")
		}
		if err := member.ApplyFields(fields); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot apply pending changes")
		}
		member.ClearPending()

		if err := database.DB.Save(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot save member")
		}

		writeAudit(c, models.AuditActionCommit, member.ID, fmt.Sprintf("Member %s changes applied", member.MemNo), before, fields)

		return c.JSON(toMemberResponse(&member))
	}
}

func PendingChangesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var members []models.Member
		if err := database.DB.
			Where("is_pending_approval = ?", true).
			Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot list pending member changes")
		}

		type pendingEntry struct {
			ID             uint                 `json:"id"`
			MemNo          string               `json:"mem_no"`
			Name           string               `json:"name"`
			PendingChanges *models.MemberFields `json:"pending_changes"`
		}

		res := make([]pendingEntry, 0, len(members))
		for i := range members {
			fields, err := members[i].PendingFields()
			if err != nil {
				continue
			}
			res = append(res, pendingEntry{
				ID:             members[i].ID,
				MemNo:          members[i].MemNo,
				Name:           members[i].Name,
				PendingChanges: &fields,
			})
		}

		return c.JSON(res)
	}
}

func writeAudit(c *fiber.Ctx, action models.AuditAction, entityID uint, description string, before, after any) {
	userID, _ := c.Locals(auth.CtxUserIDKey).(uint)
	username, _ := c.Locals(auth.CtxUsernameKey).(string)
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      userID,
		UserName:    username,
		EntityType:  "member",
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
}
