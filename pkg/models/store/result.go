package store

import "time"

// ImpactRecord is one persisted impact estimate.
type ImpactRecord struct {
	ID         string
	Node       string
	Model      string
	Position   int
	ObservedAt *time.Time
	Duration   float64
	Energy     float64
	Embodied   float64
	CreatedAt  time.Time
}
