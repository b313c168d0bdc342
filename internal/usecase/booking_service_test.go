package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/google/uuid"
)

func TestBookAppointmentFitsRemainingWindow(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	patient := env.users.add(entity.RolePatient, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))

	appointment, err := env.booking.BookAppointment(context.Background(), doctor.ID, patient.ID, monday, clock(9, 40))
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if appointment.ID == 0 {
		t.Error("appointment was not assigned an id")
	}
	if appointment.EndTime != clock(10, 20) {
		t.Errorf("end = %s, want 10:20", appointment.EndTime)
	}
	if appointment.Status != entity.AppointmentStatusScheduled {
		t.Errorf("status = %s, want scheduled", appointment.Status)
	}
}

func TestBookAppointmentConcurrentSameSlot(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))

	const requests = 8
	patients := make([]*entity.User, requests)
	for i := range patients {
		patients[i] = env.users.add(entity.RolePatient, true)
	}

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.booking.BookAppointment(context.Background(), doctor.ID, patients[i].ID, monday, clock(9, 40))
		}(i)
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicts != requests-1 {
		t.Errorf("succeeded = %d, conflicts = %d, want 1 and %d", succeeded, conflicts, requests-1)
	}
}

func TestBookAppointmentRejections(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	inactiveDoctor := env.users.add(entity.RoleDoctor, false)
	patient := env.users.add(entity.RolePatient, true)
	inactivePatient := env.users.add(entity.RolePatient, false)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))
	env.addWindow(doctor.ID, 0, clock(23, 0), entity.ClockTime(24*3600-1))
	env.addWindow(inactiveDoctor.ID, 0, clock(9, 0), clock(10, 20))

	if _, err := env.booking.BookAppointment(context.Background(), doctor.ID, patient.ID, monday, clock(9, 0)); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	tests := []struct {
		name      string
		doctorID  uuid.UUID
		patientID uuid.UUID
		date      time.Time
		start     entity.ClockTime
		want      error
	}{
		{"unknown doctor", uuid.New(), patient.ID, monday, clock(9, 40), ErrDoctorNotAvailable},
		{"inactive doctor", inactiveDoctor.ID, patient.ID, monday, clock(9, 40), ErrDoctorNotAvailable},
		{"patient booking as doctor", patient.ID, patient.ID, monday, clock(9, 40), ErrDoctorNotAvailable},
		{"doctor booking as patient", doctor.ID, doctor.ID, monday, clock(9, 40), ErrPatientNotEligible},
		{"inactive patient", doctor.ID, inactivePatient.ID, monday, clock(9, 40), ErrPatientNotEligible},
		{"slot runs past window end", doctor.ID, patient.ID, monday, clock(10, 0), ErrOutsideAvailability},
		{"no window on weekday", doctor.ID, patient.ID, monday.AddDate(0, 0, 1), clock(9, 0), ErrOutsideAvailability},
		{"slot runs past midnight", doctor.ID, patient.ID, monday, clock(23, 30), ErrOutsideAvailability},
		{"overlaps booked slot", doctor.ID, patient.ID, monday, clock(9, 20), ErrSlotConflict},
		{"same slot again", doctor.ID, patient.ID, monday, clock(9, 0), ErrSlotConflict},
		// The doctor check wins when several checks would fail.
		{"everything wrong", uuid.New(), doctor.ID, monday, clock(23, 30), ErrDoctorNotAvailable},
		{"patient before window", doctor.ID, inactivePatient.ID, monday, clock(10, 0), ErrPatientNotEligible},
		{"window before conflict", doctor.ID, patient.ID, monday, clock(8, 50), ErrOutsideAvailability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.booking.BookAppointment(context.Background(), tt.doctorID, tt.patientID, tt.date, tt.start)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBookAppointmentAdjacentSlotsDoNotConflict(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	patient := env.users.add(entity.RolePatient, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))

	for _, start := range []entity.ClockTime{clock(9, 0), clock(9, 40)} {
		if _, err := env.booking.BookAppointment(context.Background(), doctor.ID, patient.ID, monday, start); err != nil {
			t.Fatalf("book %s: %v", start, err)
		}
	}
}

func TestBookAppointmentMapsDuplicateSlot(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	patient := env.users.add(entity.RolePatient, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))
	env.appointments.insertErr = repository.ErrDuplicateSlot

	_, err := env.booking.BookAppointment(context.Background(), doctor.ID, patient.ID, monday, clock(9, 0))
	if !errors.Is(err, ErrSlotConflict) {
		t.Errorf("err = %v, want ErrSlotConflict", err)
	}
}

func TestBookAppointmentPropagatesTransientConflict(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	patient := env.users.add(entity.RolePatient, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(10, 20))
	env.transactor.err = repository.ErrTransientConflict

	_, err := env.booking.BookAppointment(context.Background(), doctor.ID, patient.ID, monday, clock(9, 0))
	if !errors.Is(err, repository.ErrTransientConflict) {
		t.Errorf("err = %v, want ErrTransientConflict", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	doctor := env.users.add(entity.RoleDoctor, true)
	patient := env.users.add(entity.RolePatient, true)
	other := env.users.add(entity.RolePatient, true)
	env.addWindow(doctor.ID, 0, clock(9, 0), clock(9, 40))
	ctx := context.Background()

	booked, err := env.booking.BookAppointment(ctx, doctor.ID, patient.ID, monday, clock(9, 0))
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	if _, err := env.booking.UpdateAppointmentStatus(ctx, booked.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	slots, err := env.resolver.ResolveSlots(ctx, doctor.ID, monday)
	if err != nil {
		t.Fatalf("ResolveSlots: %v", err)
	}
	if len(slots) != 1 || !slots[0].IsAvailable {
		t.Fatalf("slots after cancel = %+v, want one available slot", slots)
	}

	if _, err := env.booking.BookAppointment(ctx, doctor.ID, other.ID, monday, clock(9, 0)); err != nil {
		t.Errorf("rebooking cancelled slot: %v", err)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	tests := []struct {
		name    string
		initial entity.AppointmentStatus
		next    string
		want    error
	}{
		{"complete scheduled", entity.AppointmentStatusScheduled, "completed", nil},
		{"cancel scheduled", entity.AppointmentStatusScheduled, "cancelled", nil},
		{"reschedule scheduled", entity.AppointmentStatusScheduled, "scheduled", ErrInvalidStatusTransition},
		{"reopen completed", entity.AppointmentStatusCompleted, "scheduled", ErrInvalidStatusTransition},
		{"cancel completed", entity.AppointmentStatusCompleted, "cancelled", ErrInvalidStatusTransition},
		{"reopen cancelled", entity.AppointmentStatusCancelled, "scheduled", ErrInvalidStatusTransition},
		{"unknown status", entity.AppointmentStatusScheduled, "postponed", ErrInvalidStatusValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newSchedulingEnv(40 * time.Minute)
			appointment := &entity.Appointment{
				DoctorID:        uuid.New(),
				PatientID:       uuid.New(),
				AppointmentDate: monday,
				StartTime:       clock(9, 0),
				EndTime:         clock(9, 40),
				Status:          tt.initial,
			}
			_ = env.appointments.Insert(context.Background(), appointment)

			updated, err := env.booking.UpdateAppointmentStatus(context.Background(), appointment.ID, tt.next)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && string(updated.Status) != tt.next {
				t.Errorf("status = %s, want %s", updated.Status, tt.next)
			}
		})
	}
}

func TestUpdateAppointmentStatusNotFound(t *testing.T) {
	env := newSchedulingEnv(40 * time.Minute)
	_, err := env.booking.UpdateAppointmentStatus(context.Background(), 42, "cancelled")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
}
