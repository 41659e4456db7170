package layout

import "subnetd/internal/model"

// Export validates the group layout of subnets and encodes it as an
// export record. The subnets must form consecutive groups of exactly
// azCount entries each, every entry in a group agreeing on group name.
//
// An empty placement encodes as the zero record (nothing to export).
// A single group named exactly the category default omits the name
// list; decode treats the omission as that same canonical layout, so
// the rule round-trips. Validation runs to completion before the
// record is returned; a failed export produces no partial record.
func Export(subnets []model.Subnet, category model.Category, azCount int) (model.ExportRecord, error) {
	if azCount < 1 {
		return model.ExportRecord{}, ErrNoZones
	}
	if len(subnets)%azCount != 0 {
		return model.ExportRecord{}, &GroupSizeError{Count: len(subnets), ZoneCount: azCount}
	}
	if len(subnets) == 0 {
		return model.ExportRecord{}, nil
	}

	ids := make([]string, len(subnets))
	names := make([]string, len(subnets))
	for i, s := range subnets {
		ids[i] = s.SubnetID
		names[i] = GroupName(s)
	}

	// Every subnet must agree with the first subnet of its block.
	for i := range names {
		k := i / azCount
		if names[i] != names[k*azCount] {
			return model.ExportRecord{}, &GroupNamingError{Names: names}
		}
	}

	groups := len(subnets) / azCount
	groupNames := make([]string, 0, groups)
	for _, g := range seq(groups) {
		groupNames = append(groupNames, names[g*azCount])
	}

	if groups == 1 && groupNames[0] == category.DefaultGroupName() {
		return model.ExportRecord{IDs: ids}, nil
	}
	return model.ExportRecord{IDs: ids, Names: groupNames}, nil
}
