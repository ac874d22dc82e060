package auth

import (
	"strings"

	"fintcs-backend/internal/config"
	"fintcs-backend/internal/database"
	"fintcs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	EDPNo              string `json:"edp_no"`
	Name               string `json:"name"`
	AddressOffice      string `json:"address_office"`
	AddressResidential string `json:"address_residential"`
	Designation        string `json:"designation"`
	PhoneOffice        string `json:"phone_office"`
	PhoneResidential   string `json:"phone_residential"`
	Mobile             string `json:"mobile"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Role        models.UserRole `json:"role"`
	EDPNo       string          `json:"edp_no"`
	Name        string          `json:"name"`
	Designation string          `json:"designation"`
	CreatedAt   string          `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		EDPNo:       u.EDPNo,
		Name:        u.Name,
		Designation: u.Designation,
		CreatedAt:   u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func createUser(body *RegisterRequest, role models.UserRole) (*models.User, *fiber.Error) {
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))

	if body.Username == "" || body.Password == "" || body.Email == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Username, password and email are required")
	}
	if len(body.Username) < 3 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Username must be at least 3 characters")
	}
	if len(body.Password) < 6 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
	}

	var count int64
	database.DB.Model(&models.User{}).
		Where("username = ?", body.Username).
		Count(&count)
	if count > 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Username is already taken")
	}

	database.DB.Model(&models.User{}).
		Where("email = ?", body.Email).
		Count(&count)
	if count > 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Cannot hash password")
	}

	user := models.User{
		Username:           body.Username,
		PasswordHash:       string(hash),
		Role:               role,
		Email:              body.Email,
		Phone:              body.Phone,
		EDPNo:              body.EDPNo,
		Name:               body.Name,
		AddressOffice:      body.AddressOffice,
		AddressResidential: body.AddressResidential,
		Designation:        body.Designation,
		PhoneOffice:        body.PhoneOffice,
		PhoneResidential:   body.PhoneResidential,
		Mobile:             body.Mobile,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Cannot create user")
	}

	return &user, nil
}

// RegisterAdminHandler bootstraps the first administrator. Once an admin
// exists, further admins are only created through the role endpoint.
func RegisterAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "An administrator already exists")
		}

		user, ferr := createUser(&body, models.RoleAdmin)
		if ferr != nil {
			return ferr
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, ferr := createUser(&body, models.RoleUser)
		if ferr != nil {
			return ferr
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)

		var user models.User
		if err := database.DB.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Username or password is incorrect")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Username or password is incorrect")
		}

		token, expiresAt, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot create token")
		}

		return c.JSON(fiber.Map{
			"token":      token,
			"expires_at": expiresAt.Format("2006-01-02 15:04:05"),
			"user":       toUserResponse(&user),
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid user token")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(toUserResponse(&user))
	}
}

func RolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"roles": models.ValidRoles(),
		})
	}
}
