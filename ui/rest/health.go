package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/washday/washday/pkg/utils"
	"github.com/washday/washday/usecase"
)

type HealthChecker interface {
	Check(ctx context.Context) (usecase.HealthStatus, error)
}

type Health struct {
	Service HealthChecker
}

func InitRestHealth(app fiber.Router, service HealthChecker) Health {
	rest := Health{Service: service}
	app.Get("/health", rest.Status)
	return rest
}

func (controller *Health) Status(c *fiber.Ctx) error {
	status, err := controller.Service.Check(c.UserContext())
	if err != nil {
		return c.Status(503).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "health check failed",
			Results: status,
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service healthy",
		Results: status,
	})
}
