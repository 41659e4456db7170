package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoZones is returned when a zone list has no elements, making
// positional zone assignment undefined.
var ErrNoZones = errors.New("zone list is empty")

// GroupSizeError reports an element count that is not an exact multiple
// of the zone count.
type GroupSizeError struct {
	Field     string // which list was at fault, empty on the encode side
	Count     int
	ZoneCount int
}

func (e *GroupSizeError) Error() string {
	field := e.Field
	if field == "" {
		field = "subnets"
	}
	return fmt.Sprintf("%s: count %d is not an even multiple of the zone count %d", field, e.Count, e.ZoneCount)
}

// GroupNamingError reports subnets within one zone-sized block that
// disagree on group name, violating the contiguous layout contract.
// Names carries the full derived-name list for diagnosis.
type GroupNamingError struct {
	Names []string
}

func (e *GroupNamingError) Error() string {
	return fmt.Sprintf("subnet group names are not laid out in contiguous zone-sized blocks: [%s]", strings.Join(e.Names, ", "))
}

// GroupCountError reports an explicit group-name list whose length does
// not equal the computed group count.
type GroupCountError struct {
	Field  string
	Names  []string
	Groups int
}

func (e *GroupCountError) Error() string {
	return fmt.Sprintf("%s: got %d group names [%s] but the subnet ids describe %d groups",
		e.Field, len(e.Names), strings.Join(e.Names, ", "), e.Groups)
}
