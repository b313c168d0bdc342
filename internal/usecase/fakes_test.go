package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/middleware"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/service"
	"github.com/prog-nayeem/appointment-scheduler/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// serialTransactor runs transactions one at a time, which is what
// serializable isolation guarantees for the booking checks.
type serialTransactor struct {
	mu  sync.Mutex
	err error
}

func (t *serialTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
}

func (r *fakeUserRepo) add(role entity.Role, active bool) *entity.User {
	u := &entity.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.test",
		FullName: string(role) + " user",
		Role:     role,
		IsActive: active,
	}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.New()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindIdentity(ctx context.Context, id uuid.UUID, role entity.Role, requireActive bool) (*entity.User, error) {
	u, _ := r.FindByID(ctx, id)
	if u == nil || u.Role != role || (requireActive && !u.IsActive) {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) FindActiveDoctors(_ context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if u.Role == entity.RoleDoctor && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type fakeAvailabilityRepo struct {
	mu      sync.Mutex
	nextID  int64
	windows map[int64]entity.AvailabilityWindow
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{windows: map[int64]entity.AvailabilityWindow{}}
}

func (r *fakeAvailabilityRepo) Create(_ context.Context, window *entity.AvailabilityWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	window.ID = r.nextID
	r.windows[window.ID] = *window
	return nil
}

func (r *fakeAvailabilityRepo) FindByID(_ context.Context, id int64) (*entity.AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[id]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r *fakeAvailabilityRepo) FindByDoctor(_ context.Context, doctorID uuid.UUID) ([]entity.AvailabilityWindow, error) {
	return r.filter(func(w entity.AvailabilityWindow) bool { return w.DoctorID == doctorID }), nil
}

func (r *fakeAvailabilityRepo) FindByDoctorAndWeekday(_ context.Context, doctorID uuid.UUID, weekday int) ([]entity.AvailabilityWindow, error) {
	return r.filter(func(w entity.AvailabilityWindow) bool {
		return w.DoctorID == doctorID && w.Weekday == weekday
	}), nil
}

func (r *fakeAvailabilityRepo) Delete(_ context.Context, id int64, doctorID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[id]; ok && w.DoctorID == doctorID {
		delete(r.windows, id)
		return 1, nil
	}
	return 0, nil
}

// filter returns matches in insertion order, mimicking an unordered table scan
// closely enough for tests that care about sorting.
func (r *fakeAvailabilityRepo) filter(keep func(entity.AvailabilityWindow) bool) []entity.AvailabilityWindow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.AvailabilityWindow{}
	for id := int64(1); id <= r.nextID; id++ {
		if w, ok := r.windows[id]; ok && keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// fakeAppointmentRepo enforces the active-slot unique index the same way the
// partial index on appointments does.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	nextID       int64
	appointments map[int64]entity.Appointment
	insertErr    error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: map[int64]entity.Appointment{}}
}

func (r *fakeAppointmentRepo) Insert(_ context.Context, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, a := range r.appointments {
		if a.DoctorID == appointment.DoctorID &&
			a.AppointmentDate.Equal(appointment.AppointmentDate) &&
			a.StartTime == appointment.StartTime &&
			!a.IsCancelled() {
			return repository.ErrDuplicateSlot
		}
	}
	r.nextID++
	appointment.ID = r.nextID
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	r.appointments[appointment.ID] = *appointment
	return nil
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, id int64) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time, excludeStatus entity.AppointmentStatus) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(date) && a.Status != excludeStatus {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByParticipant(_ context.Context, userID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if !a.HasParticipant(userID) {
			continue
		}
		if !filter.StartDate.IsZero() && a.AppointmentDate.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && a.AppointmentDate.After(filter.EndDate) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.Before(out[j].AppointmentDate)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id int64, from, to entity.AppointmentStatus) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, repository.ErrRecordNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

type auditEntry struct {
	userID uuid.UUID
	action string
}

type fakeAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (s *fakeAuditService) record(userID uuid.UUID, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{userID: userID, action: action})
	return nil
}

func (s *fakeAuditService) LogCreate(_ context.Context, userID uuid.UUID, action, _, _ string, _ interface{}) error {
	return s.record(userID, action)
}

func (s *fakeAuditService) LogUpdate(_ context.Context, userID uuid.UUID, action, _, _ string, _, _ interface{}) error {
	return s.record(userID, action)
}

func (s *fakeAuditService) LogDelete(_ context.Context, userID uuid.UUID, action, _, _ string, _ interface{}) error {
	return s.record(userID, action)
}

func (s *fakeAuditService) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.action
	}
	return out
}

// recordingSlotCache keeps slot lists in memory under the same generation
// rules as the Redis cache and counts invalidations.
type recordingSlotCache struct {
	mu                  sync.Mutex
	entries             map[string]cachedSlots
	generations         map[string]int
	hits                int
	staleWrites         int
	dateInvalidations   int
	doctorInvalidations int
}

type cachedSlots struct {
	version service.SlotVersion
	slots   []entity.TimeSlot
}

func newRecordingSlotCache() *recordingSlotCache {
	return &recordingSlotCache{
		entries:     map[string]cachedSlots{},
		generations: map[string]int{},
	}
}

func cacheKey(doctorID uuid.UUID, date time.Time) string {
	return doctorID.String() + "/" + date.Format(entity.DateLayout)
}

func (c *recordingSlotCache) version(doctorID uuid.UUID, date time.Time) service.SlotVersion {
	return service.SlotVersion(fmt.Sprintf("%d:%d", c.generations[doctorID.String()], c.generations[cacheKey(doctorID, date)]))
}

func (c *recordingSlotCache) Get(_ context.Context, doctorID uuid.UUID, date time.Time) ([]entity.TimeSlot, service.SlotVersion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := c.version(doctorID, date)
	entry, ok := c.entries[cacheKey(doctorID, date)]
	if !ok || entry.version != version {
		return nil, version, false
	}
	c.hits++
	return entry.slots, version, true
}

func (c *recordingSlotCache) Set(_ context.Context, doctorID uuid.UUID, date time.Time, version service.SlotVersion, slots []entity.TimeSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version(doctorID, date) {
		c.staleWrites++
		return
	}
	c.entries[cacheKey(doctorID, date)] = cachedSlots{version: version, slots: slots}
}

func (c *recordingSlotCache) InvalidateDate(_ context.Context, doctorID uuid.UUID, date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dateInvalidations++
	c.generations[cacheKey(doctorID, date)]++
	delete(c.entries, cacheKey(doctorID, date))
}

func (c *recordingSlotCache) InvalidateDoctor(_ context.Context, doctorID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctorInvalidations++
	c.generations[doctorID.String()]++
	prefix := doctorID.String() + "/"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]bool{}}
}

func (s *fakeTokenStore) key(tokenType jwt.TokenType, userID uuid.UUID, tokenID string) string {
	return string(tokenType) + ":" + userID.String() + ":" + tokenID
}

func (s *fakeTokenStore) Save(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[s.key(tokenType, userID, tokenID)] = true
	return nil
}

func (s *fakeTokenStore) Exists(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[s.key(tokenType, userID, tokenID)], nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, s.key(tokenType, userID, tokenID))
	return nil
}

func (s *fakeTokenStore) RevokeAll(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
		prefix := string(tokenType) + ":" + userID.String() + ":"
		for k := range s.tokens {
			if strings.HasPrefix(k, prefix) {
				delete(s.tokens, k)
			}
		}
	}
	return nil
}

func (s *fakeTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// schedulingEnv wires the booking components over in-memory fakes.
type schedulingEnv struct {
	users        *fakeUserRepo
	windows      *fakeAvailabilityRepo
	appointments *fakeAppointmentRepo
	transactor   *serialTransactor
	cache        *recordingSlotCache
	audit        *fakeAuditService

	resolver     SlotResolver
	booking      BookingService
	availability AvailabilityUsecase
	appointment  AppointmentUsecase
}

func newSchedulingEnv(slotDuration time.Duration) *schedulingEnv {
	env := &schedulingEnv{
		users:        newFakeUserRepo(),
		windows:      newFakeAvailabilityRepo(),
		appointments: newFakeAppointmentRepo(),
		transactor:   &serialTransactor{},
		cache:        newRecordingSlotCache(),
		audit:        &fakeAuditService{},
	}
	log := quietLogger()
	env.resolver = NewSlotResolver(env.windows, env.appointments, slotDuration)
	env.booking = NewBookingService(log, env.transactor, env.users, env.windows, env.appointments, slotDuration)
	env.availability = NewAvailabilityUsecase(log, env.transactor, env.users, env.windows, env.cache, env.audit)
	env.appointment = NewAppointmentUsecase(log, env.users, env.appointments, env.resolver, env.booking, env.cache, env.audit)
	return env
}

func (e *schedulingEnv) addWindow(doctorID uuid.UUID, weekday int, start, end entity.ClockTime) {
	_ = e.windows.Create(context.Background(), &entity.AvailabilityWindow{
		DoctorID:  doctorID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
	})
}

func asUser(u *entity.User) context.Context {
	return middleware.WithIdentity(context.Background(), u.ID, u.Email, u.Role, "test-token")
}

// monday is 2025-06-02.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func clock(h, m int) entity.ClockTime {
	return entity.MustClockTime(h, m)
}
