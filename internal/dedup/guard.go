// Package dedup recognizes redelivered webhook payloads. Providers retry any
// delivery they consider failed, sometimes with slightly different metadata,
// so recognition is fingerprint-based rather than exact-match.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "enquiry_fingerprint:"

// Guard suppresses duplicate enquiry creation across webhook redeliveries.
// A nil Guard is inert: lookups miss and writes succeed silently.
type Guard struct {
	redis  *redis.Client
	tracer trace.Tracer
	window time.Duration
	ttl    time.Duration
}

// Config for NewGuard. Window is the coarse timestamp bucket used in the
// fingerprint; TTL is the duplicate-suppression horizon.
type Config struct {
	Redis  *redis.Client
	Window time.Duration
	TTL    time.Duration
}

func NewGuard(cfg Config) *Guard {
	if cfg.Redis == nil {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &Guard{
		redis:  cfg.Redis,
		tracer: otel.Tracer("muso.internal.dedup"),
		window: cfg.Window,
		ttl:    cfg.TTL,
	}
}

// Fingerprint derives the dedup key for one logical email. The provider
// timestamp is rounded down to the guard's window so a retry with slightly
// different metadata still collides; when the provider sent no timestamp the
// given fallback time is used instead.
func (g *Guard) Fingerprint(senderEmail, subject string, providerTimestamp int64, fallback time.Time) string {
	window := int64((5 * time.Minute).Seconds())
	if g != nil {
		window = int64(g.window.Seconds())
	}
	ts := providerTimestamp
	if ts <= 0 {
		ts = fallback.Unix()
	}
	bucket := ts - ts%window

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(senderEmail))))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(subject)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(bucket, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// Check returns the enquiry id previously recorded for this fingerprint, if
// any. A redis failure is returned to the caller but must never block
// enquiry creation.
func (g *Guard) Check(ctx context.Context, fingerprint string) (int64, bool, error) {
	if g == nil || g.redis == nil {
		return 0, false, nil
	}
	ctx, span := g.tracer.Start(ctx, "dedup.check")
	defer span.End()
	span.SetAttributes(attribute.String("muso.dedup.fingerprint", fingerprint))

	val, err := g.redis.Get(ctx, keyPrefix+fingerprint).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		span.RecordError(err)
		return 0, false, fmt.Errorf("dedup: check fingerprint: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("dedup: corrupt fingerprint value %q: %w", val, err)
	}
	return id, true, nil
}

// Remember records the enquiry id created for this fingerprint. SET NX keeps
// the first writer's id if two deliveries raced past Check.
func (g *Guard) Remember(ctx context.Context, fingerprint string, enquiryID int64) error {
	if g == nil || g.redis == nil {
		return nil
	}
	ctx, span := g.tracer.Start(ctx, "dedup.remember")
	defer span.End()
	span.SetAttributes(attribute.Int64("muso.enquiry.id", enquiryID))

	if err := g.redis.SetNX(ctx, keyPrefix+fingerprint, strconv.FormatInt(enquiryID, 10), g.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dedup: remember fingerprint: %w", err)
	}
	return nil
}
