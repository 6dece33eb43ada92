package domain

import "time"

// Point is one (id, vector, payload) unit written to the vector index.
// Vector length equals the configured collection dimensionality.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]Value
}

// PartitionResult counts the outcome of one partition of a run.
type PartitionResult struct {
	Processed int
	Failed    int
}

// Merge adds another partition's counters.
func (r *PartitionResult) Merge(other PartitionResult) {
	r.Processed += other.Processed
	r.Failed += other.Failed
}

// RunResult is the aggregate of one full ingest run.
type RunResult struct {
	Processed int
	Failed    int
	Duration  time.Duration
}
