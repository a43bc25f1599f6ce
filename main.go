package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gurunathasmb/Major-project/Analysis"
	"github.com/gurunathasmb/Major-project/Config"
	"github.com/gurunathasmb/Major-project/Controllers"
	"github.com/gurunathasmb/Major-project/CronJobs"
	"github.com/gurunathasmb/Major-project/FirebaseMessaging"
	"github.com/gurunathasmb/Major-project/Inference"
	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Pipeline"
	"github.com/gurunathasmb/Major-project/Routes"
	"github.com/gurunathasmb/Major-project/SSE"
	"github.com/gurunathasmb/Major-project/Storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cephaloai",
		Short: "Cephalometric analysis API server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(Config.C)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg Config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	gin.SetMode(gin.ReleaseMode)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(Config.C)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Models.ConnectDataBase(Config.C); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			if err := Models.ConnectDataBase(Config.C); err != nil {
				return err
			}
			created, err := Models.EnsureAdmin(email, password)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("user %s already exists", email)
			}
			log.Info().Str("email", Models.NormalizeUsername(email)).Msg("admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin login email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newPredictor(cfg Config.Config, norms *Analysis.Norms) Inference.Predictor {
	var predictor Inference.Predictor
	if cfg.PredictorURL == "" {
		log.Warn().Msg("PREDICTOR_URL not set, using the mock predictor")
		predictor = Inference.NewMockPredictor(norms, time.Now().UnixNano())
	} else {
		predictor = Inference.NewHTTPPredictor(cfg.PredictorURL, cfg.PredictorToken, cfg.PredictorTimeout)
	}
	log.Info().Str("predictor", predictor.Name()).Int("landmarks", len(norms.Abbrevs())).Msg("landmark predictor configured")
	return predictor
}

func runServer(cfg Config.Config) error {
	if err := Models.ConnectDataBase(cfg); err != nil {
		return err
	}
	if created, err := Models.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	} else if created {
		log.Info().Str("email", cfg.AdminEmail).Msg("seeded admin account")
	}

	norms := Analysis.DefaultNorms()
	if cfg.NormsFile != "" {
		var err error
		if norms, err = Analysis.LoadNorms(cfg.NormsFile); err != nil {
			return err
		}
	}

	store := Storage.New(cfg.UploadDir, cfg.OutputDir)
	store.MaxPixels = cfg.MaxImagePixels
	pipeline := Pipeline.New(store, newPredictor(cfg, norms), norms)
	pipeline.Timeout = cfg.PredictorTimeout + 30*time.Second
	pipeline.Publish = SSE.Broadcaster.Publish
	if err := FirebaseMessaging.Setup(cfg.FirebaseServiceAccountPath); err != nil {
		log.Warn().Err(err).Msg("push notifications disabled")
	} else {
		pipeline.Notify = FirebaseMessaging.SendMessage
	}
	pipeline.Start(cfg.AnalysisWorkers)
	defer pipeline.Stop()
	Controllers.Configure(store, pipeline)

	retry := CronJobs.NewAnalysisRetry(pipeline, cfg.AnalysisMaxAttempts, pipeline.Lease())
	scheduler, err := retry.StartRetryCron(cfg.RetryIntervalMinutes)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadMB << 20
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	Routes.ConfigRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
