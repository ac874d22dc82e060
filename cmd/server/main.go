package main

import (
	"log"
	"strings"

	"fintcs-backend/internal/audit"
	"fintcs-backend/internal/auth"
	"fintcs-backend/internal/config"
	"fintcs-backend/internal/database"
	"fintcs-backend/internal/loan"
	"fintcs-backend/internal/member"
	"fintcs-backend/internal/models"
	"fintcs-backend/internal/society"
	"fintcs-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Get("/auth/roles", auth.RolesHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// User roster
	protected.Get("/users", users.ListUsersHandler())
	protected.Get("/users/:id", users.GetUserHandler())

	// Society configuration and its approval workflow
	protected.Get("/society", society.GetSocietyHandler())
	protected.Post("/society/approve-changes", society.ApproveChangesHandler())
	protected.Get("/society/pending-changes", society.PendingChangesHandler())

	// Members
	protected.Get("/members", member.ListMembersHandler())
	protected.Get("/members/pending-changes", member.PendingChangesHandler())
	protected.Get("/members/:id", member.GetMemberHandler())
	protected.Post("/members", member.CreateMemberHandler())
	protected.Put("/members/:id", member.UpdateMemberHandler())
	protected.Post("/members/:id/approve-changes", member.ApproveChangesHandler())

	// Loans
	protected.Post("/loans", loan.CreateLoanHandler())
	protected.Get("/loans", loan.ListLoansHandler())
	protected.Get("/loans/members", loan.ListMembersHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Admin routes
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/society", society.CreateSocietyHandler())
	adminRoutes.Put("/society", society.UpdateSocietyHandler())
	adminRoutes.Get("/society/approval-status", society.ApprovalStatusHandler())

	adminRoutes.Put("/users/:id", users.UpdateUserHandler())
	adminRoutes.Put("/users/:id/role", users.UpdateUserRoleHandler())
	adminRoutes.Delete("/users/:id", users.DeleteUserHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
