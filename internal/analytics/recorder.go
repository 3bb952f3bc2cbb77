package analytics

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkbot/internal/geo"
	"github.com/serroba/linkbot/internal/shortener"
)

// ClientIP picks the visitor address: the first X-Forwarded-For entry, then
// X-Real-IP, then the connection address without its port.
func ClientIP(forwardedFor, realIP, remoteAddr string) string {
	if first, _, _ := strings.Cut(forwardedFor, ","); strings.TrimSpace(first) != "" {
		return geo.NormalizeIP(first)
	}

	if ip := geo.NormalizeIP(realIP); ip != "" {
		return ip
	}

	remoteAddr = strings.TrimSpace(remoteAddr)
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}

	if ip := geo.NormalizeIP(remoteAddr); ip != "" {
		return ip
	}

	return Unknown
}

// Locator resolves an IP into a display location and never fails.
type Locator interface {
	Locate(ctx context.Context, ip string) string
}

// Recorder turns a visit into a stored ClickEvent. Every call records a new
// click, so callers must not retry it.
type Recorder struct {
	store   Store
	locator Locator
	newID   func() string
}

// NewRecorder creates a recorder.
func NewRecorder(store Store, locator Locator) *Recorder {
	return &Recorder{
		store:   store,
		locator: locator,
		newID:   uuid.NewString,
	}
}

// Record classifies and locates the visitor and stores the click against link.
func (r *Recorder) Record(ctx context.Context, link *shortener.ShortLink, visit Visit) (*ClickEvent, error) {
	at := visit.At
	if at.IsZero() {
		at = time.Now()
	}

	ip := ClientIP(visit.ForwardedFor, visit.RealIP, visit.RemoteAddr)

	event := &ClickEvent{
		ID:         r.newID(),
		Alias:      link.Alias,
		IP:         ip,
		UserAgent:  visit.UserAgent,
		Device:     ClassifyDevice(visit.UserAgent),
		Location:   r.locator.Locate(ctx, ip),
		Referrer:   visit.Referrer,
		OccurredAt: at.UTC(),
	}

	if err := r.store.RecordClick(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", ErrTracking, link.Alias, err)
	}

	return event, nil
}

// Track adapts Record to a TrackFunc.
func (r *Recorder) Track(ctx context.Context, link *shortener.ShortLink, visit Visit) error {
	_, err := r.Record(ctx, link, visit)

	return err
}
