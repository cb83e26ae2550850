package rest

import (
	"github.com/gofiber/fiber/v2"

	domainLaundry "github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/pkg/utils"
)

// Device is the telemetry ingestion surface. Machines authenticate with a
// shared device key header, not a user session.
type Device struct {
	Service   domainLaundry.IIngestUsecase
	DeviceKey string
}

func InitRestDevice(app fiber.Router, service domainLaundry.IIngestUsecase, deviceKey string) Device {
	rest := Device{Service: service, DeviceKey: deviceKey}
	app.Post("/status_update", rest.StatusUpdate)
	return rest
}

func (controller *Device) StatusUpdate(c *fiber.Ctx) error {
	if controller.DeviceKey != "" && c.Get("X-Device-Key") != controller.DeviceKey {
		return c.Status(401).JSON(utils.ResponseData{
			Status:  401,
			Code:    "UNAUTHORIZED",
			Message: "invalid device key",
		})
	}

	var request domainLaundry.DeviceUpdateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.DeviceUpdate(c.UserContext(), request)
	if err == domainLaundry.ErrMachineNotFound {
		return c.Status(404).JSON(utils.ResponseData{
			Status:  404,
			Code:    "NOT_FOUND",
			Message: "machine not found",
		})
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update machine status",
	})
}
