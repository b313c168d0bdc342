package bootstrap

import (
	"context"
	"fmt"

	"github.com/prog-nayeem/appointment-scheduler/config"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"
	"github.com/prog-nayeem/appointment-scheduler/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// SeedOptions controls how much demo data Seed writes.
type SeedOptions struct {
	Doctors  int
	Patients int
	Seed     uint64
}

// seedShifts are the weekly windows handed out to seeded doctors.
var seedShifts = [][2]entity.ClockTime{
	{entity.MustClockTime(8, 0), entity.MustClockTime(12, 0)},
	{entity.MustClockTime(9, 0), entity.MustClockTime(13, 0)},
	{entity.MustClockTime(13, 0), entity.MustClockTime(17, 0)},
	{entity.MustClockTime(14, 0), entity.MustClockTime(18, 40)},
}

// Seed fills an empty database with fake doctors (each with weekday windows)
// and patients. Everything is written in one transaction.
func Seed(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts SeedOptions) error {
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	faker := gofakeit.New(opts.Seed)
	hashed, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)

	return database.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		for i := 0; i < opts.Doctors; i++ {
			doctor := &entity.User{
				Email:    faker.Email(),
				Password: string(hashed),
				FullName: "Dr. " + faker.Name(),
				Role:     entity.RoleDoctor,
				IsActive: true,
			}
			if err := userRepo.Create(ctx, doctor); err != nil {
				return fmt.Errorf("create doctor: %w", err)
			}

			shift := seedShifts[faker.Number(0, len(seedShifts)-1)]
			for weekday := 0; weekday < 5; weekday++ {
				window := &entity.AvailabilityWindow{
					DoctorID:  doctor.ID,
					Weekday:   weekday,
					StartTime: shift[0],
					EndTime:   shift[1],
				}
				if err := availabilityRepo.Create(ctx, window); err != nil {
					return fmt.Errorf("create availability: %w", err)
				}
			}
			log.WithFields(logrus.Fields{"doctor_id": doctor.ID, "email": doctor.Email}).Info("Seeded doctor")
		}

		for i := 0; i < opts.Patients; i++ {
			patient := &entity.User{
				Email:    faker.Email(),
				Password: string(hashed),
				FullName: faker.Name(),
				Role:     entity.RolePatient,
				IsActive: true,
			}
			if err := userRepo.Create(ctx, patient); err != nil {
				return fmt.Errorf("create patient: %w", err)
			}
		}

		log.Infof("Seeded %d doctors and %d patients (password %q)", opts.Doctors, opts.Patients, SeedPassword)
		return nil
	})
}
