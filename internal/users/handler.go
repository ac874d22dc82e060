package users

import (
	"strings"

	"fintcs-backend/internal/auth"
	"fintcs-backend/internal/database"
	"fintcs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type UserDetailResponse struct {
	ID                 uint            `json:"id"`
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Role               models.UserRole `json:"role"`
	EDPNo              string          `json:"edp_no"`
	Name               string          `json:"name"`
	AddressOffice      string          `json:"address_office"`
	AddressResidential string          `json:"address_residential"`
	Designation        string          `json:"designation"`
	PhoneOffice        string          `json:"phone_office"`
	PhoneResidential   string          `json:"phone_residential"`
	Mobile             string          `json:"mobile"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`

	EDPNo              *string `json:"edp_no"`
	Name               *string `json:"name"`
	AddressOffice      *string `json:"address_office"`
	AddressResidential *string `json:"address_residential"`
	Designation        *string `json:"designation"`
	PhoneOffice        *string `json:"phone_office"`
	PhoneResidential   *string `json:"phone_residential"`
	Mobile             *string `json:"mobile"`
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role"`
}

func toDetailResponse(u *models.User) UserDetailResponse {
	return UserDetailResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               u.Role,
		EDPNo:              u.EDPNo,
		Name:               u.Name,
		AddressOffice:      u.AddressOffice,
		AddressResidential: u.AddressResidential,
		Designation:        u.Designation,
		PhoneOffice:        u.PhoneOffice,
		PhoneResidential:   u.PhoneResidential,
		Mobile:             u.Mobile,
		CreatedAt:          u.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:          u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("id").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot list users")
		}

		res := make([]UserDetailResponse, 0, len(users))
		for i := range users {
			res = append(res, toDetailResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(toDetailResponse(&user))
	}
}

func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Username != nil {
			username := strings.TrimSpace(*body.Username)
			if len(username) < 3 {
				return fiber.NewError(fiber.StatusBadRequest, "Username must be at least 3 characters")
			}
			var count int64
			database.DB.Model(&models.User{}).
				Where("username = ? AND id <> ?", username, user.ID).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Username is already taken")
			}
			user.Username = username
		}

		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Email cannot be empty")
			}
			var count int64
			database.DB.Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Email is already registered")
			}
			user.Email = email
		}

		if body.Password != nil && *body.Password != "" {
			if len(*body.Password) < 6 {
				return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Cannot hash password")
			}
			user.PasswordHash = string(hash)
		}

		if body.Phone != nil {
			user.Phone = *body.Phone
		}
		if body.EDPNo != nil {
			user.EDPNo = *body.EDPNo
		}
		if body.Name != nil {
			user.Name = *body.Name
		}
		if body.AddressOffice != nil {
			user.AddressOffice = *body.AddressOffice
		}
		if body.AddressResidential != nil {
			user.AddressResidential = *body.AddressResidential
		}
		if body.Designation != nil {
			user.Designation = *body.Designation
		}
		if body.PhoneOffice != nil {
			user.PhoneOffice = *body.PhoneOffice
		}
		if body.PhoneResidential != nil {
			user.PhoneResidential = *body.PhoneResidential
		}
		if body.Mobile != nil {
			user.Mobile = *body.Mobile
		}

		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot update user")
		}

		return c.JSON(toDetailResponse(&user))
	}
}

// UpdateUserRoleHandler changes the role column. Role is a first-class,
// indexed attribute: the approval engine partitions the roster on it.
func UpdateUserRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var body UpdateRoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		role := models.UserRole(strings.ToLower(string(body.Role)))
		valid := false
		for _, r := range models.ValidRoles() {
			if r == role {
				valid = true
				break
			}
		}
		if !valid {
			return fiber.NewError(fiber.StatusBadRequest, "Role must be one of: user, admin")
		}

		user.Role = role
		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot update role")
		}

		return c.JSON(toDetailResponse(&user))
	}
}

func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		actorID, _ := c.Locals(auth.CtxUserIDKey).(uint)

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		if user.ID == actorID {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot delete your own account")
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot delete user")
		}

		return c.JSON(fiber.Map{
			"message": "User deleted",
		})
	}
}
