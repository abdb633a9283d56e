package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ronniejay22/Knot-APP-sub003/engine/semantic"
	"github.com/ronniejay22/Knot-APP-sub003/engine/weights"
	"github.com/ronniejay22/Knot-APP-sub003/internal/profile"
	"github.com/ronniejay22/Knot-APP-sub003/internal/version"
	"github.com/ronniejay22/Knot-APP-sub003/notify"
	"github.com/ronniejay22/Knot-APP-sub003/notify/push"
	"github.com/ronniejay22/Knot-APP-sub003/server"
	"github.com/ronniejay22/Knot-APP-sub003/store"
	"github.com/ronniejay22/Knot-APP-sub003/store/db"
)

var rootCmd = &cobra.Command{
	Use:     "knot",
	Short:   `A personalization and delivery core for partner milestone reminders and gift recommendations.`,
	Version: version.StringFull(),
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Systemd units carry their environment in the unit file; .env is
		// for direct binary execution only.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			Data:        viper.GetString("data"),
			Driver:      viper.GetString("driver"),
			DSN:         viper.GetString("dsn"),
			InstanceURL: viper.GetString("instance-url"),
			Version:     version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		metrics := notify.NewMetrics(nil)

		pushRouter, err := buildPushRouter(instanceProfile)
		if err != nil {
			slog.Error("failed to configure push transport", "error", err)
			return
		}

		scheduler := notify.NewScheduler(storeInstance, pushRouter,
			time.Duration(instanceProfile.PushTimeoutSecs)*time.Second)
		worker := notify.NewWorker(storeInstance, scheduler, metrics, notify.WorkerConfig{
			Tick: time.Duration(instanceProfile.TickInterval) * time.Second,
			Pool: instanceProfile.DeliveryWorkers,
			Rate: instanceProfile.DeliveryRate,
		})
		go worker.Run(ctx)

		// Hint embedding backfill needs an external embedder; without an
		// API key hints simply stay keyword-only.
		if instanceProfile.EmbeddingAPIKey != "" {
			embedder, err := semantic.NewEmbeddingService(&semantic.EmbeddingConfig{
				APIKey:     instanceProfile.EmbeddingAPIKey,
				BaseURL:    instanceProfile.EmbeddingBaseURL,
				Model:      instanceProfile.EmbeddingModel,
				Dimensions: instanceProfile.EmbeddingDim,
			})
			if err != nil {
				slog.Warn("failed to initialize embedding service, hint embeddings disabled", "error", err)
			} else {
				go semantic.NewBackfiller(storeInstance, embedder, 0, 0).Run(ctx)
			}
		}

		go runWeightLearner(ctx, storeInstance)

		s := server.NewServer(instanceProfile, storeInstance, scheduler, metrics)
		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			return
		}

		printGreetings(instanceProfile)

		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

// runWeightLearner sweeps every user's preference weights hourly. The
// learner is a batch job; scoring reads whatever snapshot is current.
func runWeightLearner(ctx context.Context, storeInstance *store.Store) {
	learner := weights.NewLearner(storeInstance)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		vaults, err := storeInstance.ListVaults(ctx, &store.FindVault{})
		if err != nil {
			slog.Error("failed to list vaults for weight recompute", "error", err)
			continue
		}
		userIDs := make([]int32, 0, len(vaults))
		for _, vault := range vaults {
			userIDs = append(userIDs, vault.UserID)
		}
		if err := learner.RecomputeAll(ctx, userIDs); err != nil {
			slog.Error("weight recompute sweep finished with failures", "error", err)
		}
	}
}

func buildPushRouter(instanceProfile *profile.Profile) (*push.Router, error) {
	router := push.NewRouter()
	switch instanceProfile.PushChannel {
	case "telegram":
		pusher, err := push.NewTelegramPusher(instanceProfile.TelegramToken)
		if err != nil {
			return nil, err
		}
		router.Register("telegram", pusher)
	case "webhook":
		router.Register("webhook", push.NewWebhookPusher(
			time.Duration(instanceProfile.PushTimeoutSecs)*time.Second))
	case "none":
		// Deliveries for users with a configured device will land in
		// failed; intentional for transport-less deployments.
	default:
		slog.Warn("unknown push channel, no transport registered", "channel", instanceProfile.PushChannel)
	}
	return router, nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "postgres")
	viper.SetDefault("port", 28091)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28091, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "postgres", "database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your knot instance")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("knot")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Printf("Knot %s started successfully!\n", instanceProfile.Version)

	if instanceProfile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if instanceProfile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", instanceProfile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", instanceProfile.Data)
	fmt.Printf("Database driver: %s\n", instanceProfile.Driver)
	fmt.Printf("Mode: %s\n", instanceProfile.Mode)

	if len(instanceProfile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", instanceProfile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", instanceProfile.Addr, instanceProfile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
