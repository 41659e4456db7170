package model

import "time"

// ZoneSet is an ordered list of availability zones. Subnet placements
// reference zones strictly by position within their zone set; the zone
// strings themselves are opaque to subnetd.
type ZoneSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Zones       []string  `json:"zones"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ZoneSetFilter holds filter criteria for listing zone sets
type ZoneSetFilter struct {
	Name string // Filter by name (partial match)
}
