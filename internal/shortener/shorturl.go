package shortener

import "time"

// Alias is the short identifier a link is reachable under.
type Alias string

// ShortLink maps an alias to its original URL and carries denormalized click counters.
type ShortLink struct {
	Alias       Alias
	OriginalURL string
	OwnerID     int64
	CreatedAt   time.Time
	Clicks      int64
	LastClicked *time.Time
}

// Owner is the chat user that created links.
type Owner struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName returns the best human readable name available for the owner.
func (o Owner) DisplayName() string {
	switch {
	case o.Username != "":
		return "@" + o.Username
	case o.FirstName != "" && o.LastName != "":
		return o.FirstName + " " + o.LastName
	case o.FirstName != "":
		return o.FirstName
	default:
		return "there"
	}
}
