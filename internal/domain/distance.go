package domain

import "strings"

// Distance is a vector distance metric, named as the index API expects it.
type Distance string

// Supported distance metrics.
const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// ResolveDistance maps a configured metric name to a Distance. Matching is
// case-insensitive; unrecognized values fall back to cosine rather than
// failing, so a misconfigured metric never blocks a run.
func ResolveDistance(value string) Distance {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dot", "dotproduct", "dot_product":
		return DistanceDot
	case "l2", "euclid", "euclidean":
		return DistanceEuclid
	default:
		return DistanceCosine
	}
}
