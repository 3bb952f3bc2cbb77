package geo

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/serroba/linkbot/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// LocalDevelopment is reported for loopback clients and bogon answers.
	LocalDevelopment = "Local Development"
	Unknown          = "Unknown"

	mappedIPv4Prefix = "::ffff:"
	defaultTimeout   = 5 * time.Second
)

// NormalizeIP trims whitespace and the IPv4-mapped IPv6 prefix.
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)

	if len(ip) > len(mappedIPv4Prefix) && strings.EqualFold(ip[:len(mappedIPv4Prefix)], mappedIPv4Prefix) {
		ip = ip[len(mappedIPv4Prefix):]
	}

	return ip
}

// Resolver turns client IPs into display locations, consulting the cache
// before the external lookup. Concurrent misses for one IP share a single
// lookup. It never fails; problems degrade to Unknown.
type Resolver struct {
	lookup   Lookup
	cache    *Cache
	inflight singleflight.Group
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewResolver creates a resolver. timeout bounds every external lookup.
func NewResolver(
	lookup Lookup,
	cache *Cache,
	timeout time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Resolver{
		lookup:  lookup,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Locate returns "City, Region, Country" for ip, LocalDevelopment for loopback
// addresses and Unknown when nothing can be resolved.
func (r *Resolver) Locate(ctx context.Context, ip string) string {
	ip = NormalizeIP(ip)

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		r.metrics.GeoLookup(metrics.GeoSkipped)

		return Unknown
	}

	if addr.Unmap().IsLoopback() {
		r.metrics.GeoLookup(metrics.GeoLocal)

		return LocalDevelopment
	}

	if location, ok := r.cache.Get(ip); ok {
		r.metrics.GeoLookup(metrics.GeoHit)

		return location
	}

	location, _, _ := r.inflight.Do(ip, func() (any, error) {
		// a flight that just finished may have filled the cache
		if location, ok := r.cache.Get(ip); ok {
			r.metrics.GeoLookup(metrics.GeoHit)

			return location, nil
		}

		return r.fetch(ctx, ip), nil
	})

	return location.(string)
}

// fetch calls the external service and caches every successful answer.
func (r *Resolver) fetch(ctx context.Context, ip string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	result, err := r.lookup.Lookup(ctx, ip)

	if err != nil {
		if errors.Is(err, ErrLookupDisabled) {
			r.metrics.GeoLookup(metrics.GeoSkipped)

			return Unknown
		}

		r.metrics.GeoLookup(metrics.GeoError)
		r.logger.Warn("geolocation lookup failed",
			zap.String("ip", ip),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)

		return Unknown
	}

	r.metrics.GeoLatency(time.Since(started))

	if result.Bogon {
		r.metrics.GeoLookup(metrics.GeoLocal)
		r.cache.Set(ip, LocalDevelopment)

		return LocalDevelopment
	}

	r.metrics.GeoLookup(metrics.GeoMiss)

	location := result.String()
	if location == "" {
		location = Unknown
	}

	r.cache.Set(ip, location)

	return location
}
