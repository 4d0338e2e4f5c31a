package registry

import "time"

// Reservation records a port handed out by suggest under a name
type Reservation struct {
	ID        int
	Name      string
	Port      int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the reservation's TTL has passed
func (r Reservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
