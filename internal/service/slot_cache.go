package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// setIfCurrentScript writes a slot list only while the generation it was
// resolved under is still current.
//
// KEYS[1] doctor generation, KEYS[2] date generation, KEYS[3] slot list
// ARGV[1] expected version, ARGV[2] payload, ARGV[3] ttl in milliseconds
var setIfCurrentScript = redis.NewScript(`
	local current = (redis.call('GET', KEYS[1]) or '0') .. ':' .. (redis.call('GET', KEYS[2]) or '0')
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
	return 1
`)

const (
	// RedisSlotKeyPrefix prefixes resolved slot lists: slots:{doctor}:{date}
	RedisSlotKeyPrefix = "slots:"

	// RedisSlotGenKeyPrefix prefixes invalidation counters:
	// slots_gen:{doctor} and slots_gen:{doctor}:{date}
	RedisSlotGenKeyPrefix = "slots_gen:"

	// Timeout for individual Redis operations
	redisCacheTimeout = 2 * time.Second

	minGenerationTTL = 48 * time.Hour

	scanBatchSize = 200
)

// SlotVersion identifies the cache generation a slot list was resolved
// under. The zero value is never current.
type SlotVersion string

// SlotCache stores resolved slot lists per doctor and date. It is a read
// cache only; booking correctness never depends on it.
//
// Get returns the current version even on a miss. Callers resolve the slots
// after Get and hand that version back to Set, so a list resolved before an
// invalidation is never stored after it.
type SlotCache interface {
	Get(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.TimeSlot, SlotVersion, bool)
	Set(ctx context.Context, doctorID uuid.UUID, date time.Time, version SlotVersion, slots []entity.TimeSlot)
	InvalidateDate(ctx context.Context, doctorID uuid.UUID, date time.Time)
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID)
}

type redisSlotCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

// NewRedisSlotCache creates a SlotCache backed by Redis. Every failure is
// logged and treated as a miss.
func NewRedisSlotCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) SlotCache {
	return &redisSlotCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func slotKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisSlotKeyPrefix, doctorID, date.Format(entity.DateLayout))
}

func doctorGenKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("%s%s", RedisSlotGenKeyPrefix, doctorID)
}

func dateGenKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisSlotGenKeyPrefix, doctorID, date.Format(entity.DateLayout))
}

// slotEntry is the stored form of a slot list.
type slotEntry struct {
	Version SlotVersion       `json:"version"`
	Slots   []entity.TimeSlot `json:"slots"`
}

// versionOf combines the two generation counters as returned by MGET.
func versionOf(doctorGen, dateGen interface{}) SlotVersion {
	return SlotVersion(generation(doctorGen) + ":" + generation(dateGen))
}

func generation(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "0"
}

// decodeEntry returns the stored slots when they were written under version.
func decodeEntry(raw []byte, version SlotVersion) ([]entity.TimeSlot, bool, error) {
	var entry slotEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, err
	}
	if entry.Version != version {
		return nil, false, nil
	}
	return entry.Slots, true, nil
}

func (c *redisSlotCache) Get(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.TimeSlot, SlotVersion, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	vals, err := c.redisClient.MGet(ctx, doctorGenKey(doctorID), dateGenKey(doctorID, date), slotKey(doctorID, date)).Result()
	if err != nil {
		c.log.Warnf("Failed to read slot cache for doctor %s: %+v", doctorID, err)
		return nil, "", false
	}

	version := versionOf(vals[0], vals[1])
	raw, ok := vals[2].(string)
	if !ok {
		return nil, version, false
	}

	slots, current, err := decodeEntry([]byte(raw), version)
	if err != nil {
		c.log.Warnf("Failed to decode slot cache for doctor %s: %+v", doctorID, err)
		return nil, version, false
	}
	return slots, version, current
}

func (c *redisSlotCache) Set(ctx context.Context, doctorID uuid.UUID, date time.Time, version SlotVersion, slots []entity.TimeSlot) {
	if version == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := json.Marshal(slotEntry{Version: version, Slots: slots})
	if err != nil {
		c.log.Warnf("Failed to encode slots for doctor %s: %+v", doctorID, err)
		return
	}

	keys := []string{doctorGenKey(doctorID), dateGenKey(doctorID, date), slotKey(doctorID, date)}
	written, err := setIfCurrentScript.Run(ctx, c.redisClient, keys, string(version), raw, c.calculateTTL(date).Milliseconds()).Int()
	if err != nil {
		c.log.Warnf("Failed to write slot cache for doctor %s: %+v", doctorID, err)
		return
	}
	if written == 0 {
		c.log.Debugf("Skipped stale slot list for doctor %s on %s", doctorID, date.Format(entity.DateLayout))
	}
}

func (c *redisSlotCache) InvalidateDate(ctx context.Context, doctorID uuid.UUID, date time.Time) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	genKey := dateGenKey(doctorID, date)
	pipe := c.redisClient.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, c.generationTTL())
	pipe.Del(ctx, slotKey(doctorID, date))
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warnf("Failed to invalidate slot cache for doctor %s on %s: %+v", doctorID, date.Format(entity.DateLayout), err)
	}
}

// InvalidateDoctor drops every cached date of the doctor. Used when the
// weekly windows change.
func (c *redisSlotCache) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	genKey := doctorGenKey(doctorID)
	pipe := c.redisClient.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, c.generationTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warnf("Failed to bump slot generation for doctor %s: %+v", doctorID, err)
	}

	// Entries under the old generation are already misses; drop them.
	pattern := fmt.Sprintf("%s%s:*", RedisSlotKeyPrefix, doctorID)
	var cursor uint64
	for {
		keys, next, err := c.redisClient.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			c.log.Warnf("Failed to scan slot cache for doctor %s: %+v", doctorID, err)
			return
		}

		if len(keys) > 0 {
			del := c.redisClient.TxPipeline()
			del.Del(ctx, keys...)
			if _, err := del.Exec(ctx); err != nil {
				c.log.Warnf("Failed to invalidate slot cache for doctor %s: %+v", doctorID, err)
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// generationTTL keeps counters alive longer than any slot list written
// under them.
func (c *redisSlotCache) generationTTL() time.Duration {
	if c.ttl > minGenerationTTL {
		return 2 * c.ttl
	}
	return minGenerationTTL
}

// calculateTTL caps the configured TTL at the end of the day after date.
func (c *redisSlotCache) calculateTTL(date time.Time) time.Duration {
	untilExpiry := time.Until(date.AddDate(0, 0, 2))
	if untilExpiry <= 0 {
		// Past date - short TTL for cleanup
		return 1 * time.Minute
	}
	if untilExpiry < c.ttl {
		return untilExpiry
	}
	return c.ttl
}

// NoopSlotCache disables caching.
type NoopSlotCache struct{}

func (NoopSlotCache) Get(context.Context, uuid.UUID, time.Time) ([]entity.TimeSlot, SlotVersion, bool) {
	return nil, "", false
}

func (NoopSlotCache) Set(context.Context, uuid.UUID, time.Time, SlotVersion, []entity.TimeSlot) {}

func (NoopSlotCache) InvalidateDate(context.Context, uuid.UUID, time.Time) {}

func (NoopSlotCache) InvalidateDoctor(context.Context, uuid.UUID) {}
