package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreConfig "github.com/washday/washday/core/config"
	coreDB "github.com/washday/washday/core/database"
	settingsApp "github.com/washday/washday/core/settings/application"
	domainLaundry "github.com/washday/washday/domains/laundry"
	domainUser "github.com/washday/washday/domains/user"
	"github.com/washday/washday/infrastructure/push"
	"github.com/washday/washday/pkg/eventworker"
	"github.com/washday/washday/pkg/retry"
	"github.com/washday/washday/pkg/security"
	"github.com/washday/washday/pkg/utils"
	"github.com/washday/washday/realtime/estimator"
	"github.com/washday/washday/realtime/fanout"
	"github.com/washday/washday/realtime/registry"
	"github.com/washday/washday/realtime/syncer"
	"github.com/washday/washday/repository"
	"github.com/washday/washday/usecase"
)

var (
	// Repositories
	machineRepo      *repository.MachineGormRepository
	roomRepo         *repository.RoomGormRepository
	subscriptionRepo *repository.SubscriptionGormRepository
	reservationRepo  *repository.ReservationGormRepository
	userRepo         *repository.UserGormRepository
	surveyRepo       *repository.SurveyGormRepository
	congestionRepo   *repository.CongestionGormRepository

	// Realtime core
	connRegistry    *registry.Registry
	durationEst     *estimator.Estimator
	pushClient      *push.Client
	fanoutService   *fanout.Service
	eventPool       *eventworker.Pool
	eventDispatcher *fanout.Dispatcher
	syncScheduler   *syncer.Scheduler

	// Usecases
	userUsecase    domainUser.IUserUsecase
	laundryUsecase domainLaundry.ILaundryUsecase
	ingestUsecase  domainLaundry.IIngestUsecase
	healthUsecase  *usecase.HealthService
	settingsSvc    *settingsApp.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "washday",
	Short: "Shared laundry room status and notification server",
	Long: `Washday tracks shared laundry-machine usage, estimates remaining
cycle time per course, and notifies subscribed users over websocket and push.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initApp)
}

func initApp() {
	cfg, err := coreConfig.LoadConfig()
	if err != nil {
		logrus.Fatalln("Failed to load configuration: ", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	security.SetSecretKey(cfg.Security.SecretKey)

	if err := os.MkdirAll(cfg.Paths.Storages, 0o755); err != nil {
		logrus.Fatalln("Failed to create storage directory: ", err)
	}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("Failed to connect to database: ", err)
	}

	ctx := context.Background()
	if err := repository.InitSchema(ctx, db); err != nil {
		logrus.Fatalln("Failed to migrate schema: ", err)
	}

	machineRepo = repository.NewMachineGormRepository(db)
	roomRepo = repository.NewRoomGormRepository(db)
	subscriptionRepo = repository.NewSubscriptionGormRepository(db)
	reservationRepo = repository.NewReservationGormRepository(db)
	userRepo = repository.NewUserGormRepository(db)
	surveyRepo = repository.NewSurveyGormRepository(db)
	congestionRepo = repository.NewCongestionGormRepository(db)

	settingsSvc = settingsApp.NewSettingsService(db)
	overrides, err := settingsSvc.GetDynamicSettings(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Dynamic settings unavailable, using env values")
		overrides = &settingsApp.DynamicSettings{}
	}

	pushEnabled := cfg.Push.Enabled
	if overrides.PushEnabled != nil {
		pushEnabled = *overrides.PushEnabled
	}
	syncInterval := time.Duration(cfg.Scheduler.SyncIntervalSeconds) * time.Second
	if overrides.SyncIntervalSeconds != nil {
		syncInterval = time.Duration(*overrides.SyncIntervalSeconds) * time.Second
	}
	cycleMinutes := cfg.Laundry.DefaultCycleMinutes
	if overrides.DefaultCycleMinutes != nil {
		cycleMinutes = *overrides.DefaultCycleMinutes
	}

	durationEst = estimator.New(repository.NewStatsGormRepository(db))
	connRegistry = registry.New()

	var sender push.MulticastSender
	if pushEnabled {
		fcmSender, err := push.NewFCMSender(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logrus.WithError(err).Warn("Push disabled: FCM initialization failed")
		} else {
			sender = fcmSender
		}
	} else {
		logrus.Info("Push notifications disabled by configuration")
	}
	pushClient = push.NewClient(sender,
		push.WithBatchSize(cfg.Push.BatchSize),
		push.WithCallTimeout(time.Duration(cfg.Push.CallTimeoutMs)*time.Millisecond),
		push.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.Push.MaxRetries,
			BaseDelay:   time.Duration(cfg.Push.RetryBaseMs) * time.Millisecond,
			IsRetryable: retry.IsTransientNetworkError,
		}),
	)

	fanoutService = fanout.NewService(machineRepo, subscriptionRepo, userRepo, connRegistry, pushClient, durationEst)

	eventPool = eventworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	eventPool.Start(ctx)
	eventDispatcher = fanout.NewDispatcher(eventPool, fanoutService)

	syncScheduler = syncer.New(machineRepo, durationEst, connRegistry, syncInterval)

	userUsecase = usecase.NewUserService(userRepo, subscriptionRepo)
	laundryUsecase = usecase.NewLaundryService(
		machineRepo, roomRepo, subscriptionRepo, reservationRepo,
		surveyRepo, congestionRepo, durationEst, eventDispatcher, cycleMinutes,
	)
	ingestUsecase = usecase.NewIngestService(machineRepo, eventDispatcher)

	sqlDB, err := coreDB.GetSQLDB()
	if err != nil {
		logrus.WithError(err).Warn("Health check database handle unavailable")
	}
	healthUsecase = usecase.NewHealthService(sqlDB)
}

// StopApp shuts down the long-lived subsystems in reverse dependency order.
func StopApp() {
	if syncScheduler != nil {
		syncScheduler.Stop()
	}
	if eventPool != nil {
		eventPool.Stop()
	}
	if coreDB.GlobalDB != nil {
		if sqlDB, err := coreDB.GlobalDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
