package analytics

import (
	"errors"
	"time"

	"github.com/serroba/linkbot/internal/shortener"
)

// Unknown is used wherever a client attribute cannot be determined.
const Unknown = "Unknown"

// ErrTracking wraps every failure on the click recording path.
var ErrTracking = errors.New("click tracking failed")

// ClickEvent is one recorded visit to a short link. Events are never updated.
type ClickEvent struct {
	ID         string
	Alias      shortener.Alias
	IP         string
	UserAgent  string
	Device     string
	Location   string
	Referrer   string
	OccurredAt time.Time
}

// Visit is the raw request context a click is derived from.
type Visit struct {
	ForwardedFor string    `json:"forwardedFor,omitempty"`
	RealIP       string    `json:"realIp,omitempty"`
	RemoteAddr   string    `json:"remoteAddr,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	Referrer     string    `json:"referrer,omitempty"`
	At           time.Time `json:"at"`
}
