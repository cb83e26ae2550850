package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/washday/washday/core/config"
	"github.com/washday/washday/core/settings/application"
	"github.com/washday/washday/pkg/eventworker"
	"github.com/washday/washday/pkg/utils"
	"github.com/washday/washday/ui/rest/middleware"
)

// Admin exposes runtime settings and event-pool counters.
type Admin struct {
	Settings *application.SettingsService
	Pool     *eventworker.Pool
}

func InitRestAdmin(app fiber.Router, settings *application.SettingsService, pool *eventworker.Pool) Admin {
	rest := Admin{Settings: settings, Pool: pool}

	admin := app.Group("/admin", middleware.Auth(), middleware.AdminOnly())
	admin.Get("/settings", rest.GetSettings)
	admin.Post("/settings/sync_interval", rest.SetSyncInterval)
	admin.Post("/settings/push_enabled", rest.SetPushEnabled)
	admin.Post("/settings/announcement", rest.SetAnnouncement)
	admin.Get("/worker_stats", rest.WorkerStats)

	return rest
}

func (controller *Admin) GetSettings(c *fiber.Ctx) error {
	dynamic, err := controller.Settings.GetDynamicSettings(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch settings",
		Results: fiber.Map{
			"effective": config.GetAllSettings(),
			"overrides": dynamic,
		},
	})
}

func (controller *Admin) SetSyncInterval(c *fiber.Ctx) error {
	var request struct {
		Seconds int `json:"seconds"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Settings.SetSyncInterval(c.UserContext(), request.Seconds)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update sync interval",
	})
}

func (controller *Admin) SetPushEnabled(c *fiber.Ctx) error {
	var request struct {
		Enabled bool `json:"enabled"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Settings.SetPushEnabled(c.UserContext(), request.Enabled)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update push flag",
	})
}

func (controller *Admin) SetAnnouncement(c *fiber.Ctx) error {
	var request struct {
		Text string `json:"text"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Settings.SetAnnouncement(c.UserContext(), request.Text)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update announcement",
	})
}

func (controller *Admin) WorkerStats(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch worker stats",
		Results: controller.Pool.GetStats(),
	})
}
