package main

import (
	"context"
	"os"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/cmd/bootstrap"
	"github.com/prog-nayeem/appointment-scheduler/config"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "appointment-scheduler",
		Short: "Doctor appointment scheduling API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				logrus.Errorf("Failed to initialize application: %v", err)
				return err
			}

			app.Run()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return database.MigrateUp(cfg.DB.URL(), log)
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg.DB.URL(), steps, log)
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back (0 = all)")
	cmd.AddCommand(downCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake doctors, availability windows and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			patients, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetUint64("seed")

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			return bootstrap.Seed(ctx, cfg, log, bootstrap.SeedOptions{
				Doctors:  doctors,
				Patients: patients,
				Seed:     seed,
			})
		},
	}
	cmd.Flags().Int("doctors", 10, "Number of doctors to create")
	cmd.Flags().Int("patients", 50, "Number of patients to create")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 = random)")

	return cmd
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Errorf("Failed to load config: %v", err)
		return nil, nil, err
	}
	return cfg, bootstrap.NewLogger(cfg.App.LogLevel), nil
}
