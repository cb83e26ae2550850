package rest

import (
	"github.com/gofiber/fiber/v2"

	domainUser "github.com/washday/washday/domains/user"
	"github.com/washday/washday/pkg/utils"
	"github.com/washday/washday/ui/rest/middleware"
)

type User struct {
	Service domainUser.IUserUsecase
}

func InitRestUser(app fiber.Router, service domainUser.IUserUsecase) User {
	rest := User{Service: service}
	app.Post("/register", rest.Register)
	app.Post("/login", rest.Login)
	app.Post("/logout", middleware.Auth(), rest.Logout)
	app.Post("/set_fcm_token", middleware.Auth(), rest.SetFCMToken)
	return rest
}

func (controller *User) Register(c *fiber.Ctx) error {
	var request domainUser.RegisterRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.Register(c.UserContext(), request)
	if err == domainUser.ErrDuplicateUsername {
		return c.Status(409).JSON(utils.ResponseData{
			Status:  409,
			Code:    "DUPLICATE",
			Message: "username or student number already registered",
		})
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success register user",
	})
}

func (controller *User) Login(c *fiber.Ctx) error {
	var request domainUser.LoginRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := controller.Service.Login(c.UserContext(), request)
	if err == domainUser.ErrInvalidCredentials {
		return c.Status(401).JSON(utils.ResponseData{
			Status:  401,
			Code:    "UNAUTHORIZED",
			Message: "invalid credentials",
		})
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success login",
		Results: response,
	})
}

func (controller *User) Logout(c *fiber.Ctx) error {
	err := controller.Service.Logout(c.UserContext(), middleware.UserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success logout",
	})
}

func (controller *User) SetFCMToken(c *fiber.Ctx) error {
	var request domainUser.SetFCMTokenRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SetFCMToken(c.UserContext(), middleware.UserID(c), request.FCMToken)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update fcm token",
	})
}
