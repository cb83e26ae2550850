package rest

import (
	"github.com/gofiber/fiber/v2"

	domainLaundry "github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/pkg/utils"
	"github.com/washday/washday/ui/rest/middleware"
)

type Laundry struct {
	Service domainLaundry.ILaundryUsecase
}

func InitRestLaundry(app fiber.Router, service domainLaundry.ILaundryUsecase) Laundry {
	rest := Laundry{Service: service}

	authed := app.Group("", middleware.Auth())
	authed.Post("/load", rest.Load)
	authed.Post("/reserve", rest.Reserve)
	authed.Post("/notify_me", rest.NotifyMe)
	authed.Post("/device_subscribe", rest.DeviceSubscribe)
	authed.Get("/rooms", rest.Rooms)
	authed.Post("/start_course", rest.StartCourse)
	authed.Post("/survey", rest.Survey)
	authed.Get("/statistics/congestion", rest.Congestion)

	admin := app.Group("/admin", middleware.Auth(), middleware.AdminOnly())
	admin.Post("/add_room", rest.AdminAddRoom)
	admin.Post("/add_device", rest.AdminAddDevice)

	return rest
}

func (controller *Laundry) Load(c *fiber.Ctx) error {
	response, err := controller.Service.Load(c.UserContext(), middleware.UserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch machines",
		Results: response,
	})
}

func (controller *Laundry) Reserve(c *fiber.Ctx) error {
	var request domainLaundry.ReserveRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.Reserve(c.UserContext(), middleware.UserID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update reservation",
	})
}

func (controller *Laundry) NotifyMe(c *fiber.Ctx) error {
	var request domainLaundry.NotifyMeRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.NotifyMe(c.UserContext(), middleware.UserID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update machine notification",
	})
}

func (controller *Laundry) DeviceSubscribe(c *fiber.Ctx) error {
	var request domainLaundry.DeviceSubscribeRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SubscribeRoom(c.UserContext(), middleware.UserID(c), request.RoomID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success subscribe room",
	})
}

func (controller *Laundry) Rooms(c *fiber.Ctx) error {
	rooms, err := controller.Service.Rooms(c.UserContext(), middleware.UserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch rooms",
		Results: rooms,
	})
}

func (controller *Laundry) StartCourse(c *fiber.Ctx) error {
	var request domainLaundry.StartCourseRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := controller.Service.StartCourse(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success start course",
		Results: response,
	})
}

func (controller *Laundry) Survey(c *fiber.Ctx) error {
	var request domainLaundry.SurveyRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SubmitSurvey(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success submit survey",
	})
}

func (controller *Laundry) Congestion(c *fiber.Ctx) error {
	response, err := controller.Service.Congestion(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch congestion",
		Results: response,
	})
}

func (controller *Laundry) AdminAddRoom(c *fiber.Ctx) error {
	var request domainLaundry.AdminAddRoomRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := controller.Service.AdminAddRoom(c.UserContext(), middleware.UserID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success add room",
		Results: response,
	})
}

func (controller *Laundry) AdminAddDevice(c *fiber.Ctx) error {
	var request domainLaundry.AdminAddDeviceRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.AdminAddDevice(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success add machine",
	})
}
