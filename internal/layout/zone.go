package layout

// PickZone assigns a zone to the subnet at position i by cycling
// through zones round-robin. The empty list is rejected explicitly so
// the modulo never faults.
func PickZone(zones []string, i int) (string, error) {
	if len(zones) == 0 {
		return "", ErrNoZones
	}
	return zones[i%len(zones)], nil
}
