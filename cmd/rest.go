package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreConfig "github.com/washday/washday/core/config"
	"github.com/washday/washday/ui/rest"
	"github.com/washday/washday/ui/rest/middleware"
	"github.com/washday/washday/ui/websocket"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the laundry status API over http",
	Run:   restServer,
}

func init() {
	restCmd.Flags().StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		coreConfig.Global.App.Port = portFlag
	}

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Washday",
		ServerHeader:            "Hidden",
	}
	if len(coreConfig.Global.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = coreConfig.Global.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(coreConfig.Global.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Device-Key, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if coreConfig.Global.App.Debug {
		app.Use(logger.New())
	}

	apiGroup := app.Group(coreConfig.Global.App.BasePath + "/api")

	rest.InitRestUser(apiGroup, userUsecase)
	rest.InitRestLaundry(apiGroup, laundryUsecase)
	rest.InitRestDevice(apiGroup, ingestUsecase, coreConfig.Global.Security.DeviceKey)
	rest.InitRestAdmin(apiGroup, settingsSvc, eventPool)
	rest.InitRestHealth(apiGroup, healthUsecase)

	websocket.RegisterRoutes(apiGroup, userUsecase, connRegistry)

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	// Timer resync broadcast runs for the lifetime of the server.
	schedulerCtx := cmd.Context()
	syncScheduler.Start(schedulerCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	if err := app.Listen(":" + coreConfig.Global.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
