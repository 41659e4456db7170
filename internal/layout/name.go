// Package layout implements the naming, partitioning and export/import
// rules for subnet placements. A placement is an ordered subnet list
// laid out as consecutive groups of exactly one subnet per zone,
// group-major then zone-minor. The layout never materializes groups as
// objects; they are recovered from list position alone.
package layout

import (
	"regexp"
	"strconv"
	"strings"

	"subnetd/internal/model"
)

var (
	nonAlnum     = regexp.MustCompile(`[^A-Za-z0-9]`)
	subnetSuffix = regexp.MustCompile(`Subnet\d+$`)
)

// Slug strips every character outside [A-Za-z0-9] from text. The
// result is safe to embed in hierarchical identifiers. Callers are
// responsible for avoiding collisions between slugged names.
func Slug(text string) string {
	return nonAlnum.ReplaceAllString(text, "")
}

// SubnetPathID composes the trailing path segment for the subnet at
// zero-based position i within its group: "<group>Subnet<i+1>". The
// ordinal is 1-based.
func SubnetPathID(group string, i int) string {
	return group + "Subnet" + strconv.Itoa(i+1)
}

// ParseGroupName recovers a group name from the trailing segment of a
// hierarchical identifier by stripping its "Subnet<digits>" suffix.
// A segment without the suffix is returned unchanged; subnets created
// by this package always carry a stored group name, so the lenient
// fallback only applies to paths minted elsewhere.
func ParseGroupName(path string) string {
	segment := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		segment = path[idx+1:]
	}
	return subnetSuffix.ReplaceAllString(segment, "")
}

// GroupName returns the subnet's group name, preferring the stored
// field over re-parsing the path.
func GroupName(s model.Subnet) string {
	if s.GroupName != "" {
		return s.GroupName
	}
	return ParseGroupName(s.Path)
}

// seq returns the integers [0, n)
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
