package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/de-tools/impact-atlas/pkg/models/api"
	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/de-tools/impact-atlas/pkg/models/store"
)

// MapImpactToStoreRecord builds the persisted form of the result computed for observation at position.
// The record ID is derived from node, model, position and observation time so re-runs overwrite
// rather than duplicate.
func MapImpactToStoreRecord(
	node, model string,
	position int,
	observation domain.Observation,
	result domain.ImpactResult,
	now time.Time,
) store.ImpactRecord {
	rec := store.ImpactRecord{
		Node:      node,
		Model:     model,
		Position:  position,
		Energy:    result.Energy,
		Embodied:  result.Embodied,
		CreatedAt: now,
	}

	if d, err := domain.ToFloat(observation[domain.ObservationDuration]); err == nil {
		rec.Duration = d
	}
	sample := domain.UsageSample{Datetime: observation[domain.ObservationDatetime]}
	if ts, ok := sample.Timestamp(); ok {
		rec.ObservedAt = &ts
	}

	key := fmt.Sprintf("%s|%s|%d|%v", node, model, position, observation[domain.ObservationDatetime])
	hash := sha256.Sum256([]byte(key))
	rec.ID = hex.EncodeToString(hash[:16])
	return rec
}

func MapImpactResultToAPI(observation domain.Observation, result domain.ImpactResult) api.ImpactResult {
	return api.ImpactResult{
		Datetime: observation[domain.ObservationDatetime],
		Duration: observation[domain.ObservationDuration],
		Energy:   result.Energy,
		Embodied: result.Embodied,
	}
}
