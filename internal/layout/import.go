package layout

import "subnetd/internal/model"

// Import reconstructs a subnet list from the two exported lists plus a
// caller-supplied zone list. The result is positionally identical to
// the list the record was exported from: group-major, zone-minor, one
// subnet per (group, zone) pair.
//
// A nil ids list reconstructs the empty placement regardless of names.
// An absent or empty names list means every group carries the category
// default name. idField and nameField only label error messages, so
// callers can report which store keys held the bad lists.
func Import(ids, names []string, category model.Category, zones []string, idField, nameField string) ([]model.Subnet, error) {
	if len(zones) == 0 {
		return nil, ErrNoZones
	}
	if len(ids)%len(zones) != 0 {
		return nil, &GroupSizeError{Field: idField, Count: len(ids), ZoneCount: len(zones)}
	}
	if len(ids) == 0 {
		return []model.Subnet{}, nil
	}

	groups := len(ids) / len(zones)
	groupNames := names
	if len(names) == 0 {
		groupNames = make([]string, groups)
		for g := range groupNames {
			groupNames[g] = category.DefaultGroupName()
		}
	} else if len(names) != groups {
		return nil, &GroupCountError{Field: nameField, Names: names, Groups: groups}
	}

	subnets := make([]model.Subnet, 0, len(ids))
	for _, i := range seq(len(ids)) {
		zone, err := PickZone(zones, i)
		if err != nil {
			return nil, err
		}
		k := i / len(zones)
		subnets = append(subnets, model.Subnet{
			SubnetID:  ids[i],
			Path:      SubnetPathID(groupNames[k], i),
			Zone:      zone,
			GroupName: groupNames[k],
			Index:     i,
		})
	}
	return subnets, nil
}
