package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/service"
)

// Dashboard returns counts, the current month bucket and active users.
//
// @Summary  Organization dashboard
// @Tags     dashboard
// @Produce  json
// @Success  200  {object}  service.DashboardSummary
// @Security BearerAuth
// @Router   /dashboard [get]
func Dashboard(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext(), organization(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sum)
	}
}

// Members lists the active users of the caller's organization.
func Members(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		members, err := svc.Members(c.UserContext(), organization(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": members})
	}
}
