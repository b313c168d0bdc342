package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/google/uuid"
)

// SlotResolver derives the bookable slots of a doctor on a calendar date.
type SlotResolver interface {
	ResolveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.TimeSlot, error)
}

type slotResolver struct {
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	slotDuration     time.Duration
}

func NewSlotResolver(
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	slotDuration time.Duration,
) SlotResolver {
	return &slotResolver{
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		slotDuration:     slotDuration,
	}
}

// ResolveSlots splits every window of the date's weekday into consecutive
// slots of the configured duration, then flags slots that overlap a
// non-cancelled appointment. A doctor with no windows that day gets an empty
// list. Output is ordered by window start, then slot start.
func (r *slotResolver) ResolveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.TimeSlot, error) {
	date = entity.DateOnly(date)

	windows, err := r.availabilityRepo.FindByDoctorAndWeekday(ctx, doctorID, entity.Weekday(date))
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []entity.TimeSlot{}, nil
	}

	appointments, err := r.appointmentRepo.FindByDoctorAndDate(ctx, doctorID, date, entity.AppointmentStatusCancelled)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].StartTime < windows[j].StartTime
	})

	slots := make([]entity.TimeSlot, 0)
	for i := range windows {
		for _, slot := range partitionWindow(&windows[i], r.slotDuration) {
			slot.IsAvailable = !occupied(appointments, slot.StartTime, slot.EndTime)
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// partitionWindow cuts the window into back-to-back slots of length d
// starting at the window start. A trailing remainder shorter than d is
// dropped.
func partitionWindow(window *entity.AvailabilityWindow, d time.Duration) []entity.TimeSlot {
	if d <= 0 {
		return nil
	}

	var slots []entity.TimeSlot
	start := window.StartTime
	for {
		end, ok := start.Add(d)
		if !ok || end > window.EndTime {
			return slots
		}
		slots = append(slots, entity.TimeSlot{StartTime: start, EndTime: end})
		start = end
	}
}

func occupied(appointments []entity.Appointment, start, end entity.ClockTime) bool {
	for i := range appointments {
		if appointments[i].Occupies(start, end) {
			return true
		}
	}
	return false
}
