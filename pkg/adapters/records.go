package adapters

import (
	"fmt"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

// MapDocumentToRecords converts a decoded YAML or JSON list into plugin records.
func MapDocumentToRecords(raw interface{}) ([]domain.PluginRecord, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expecting an array of records, got %T", domain.ErrInvalidInput, raw)
	}

	records := make([]domain.PluginRecord, 0, len(items))
	for i, item := range items {
		m, err := toMapping(item)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrInvalidInput, i, err)
		}
		records = append(records, domain.PluginRecord(m))
	}
	return records, nil
}

// MapDocumentToObservations converts a decoded YAML or JSON list into observations.
func MapDocumentToObservations(raw interface{}) ([]domain.Observation, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expecting an array of observations, got %T", domain.ErrInvalidInput, raw)
	}

	observations := make([]domain.Observation, 0, len(items))
	for i, item := range items {
		m, err := toMapping(item)
		if err != nil {
			return nil, fmt.Errorf("%w: observation %d: %v", domain.ErrInvalidObservation, i, err)
		}
		observations = append(observations, domain.Observation(m))
	}
	return observations, nil
}

// toMapping accepts string-keyed mappings only.
func toMapping(item interface{}) (map[string]interface{}, error) {
	switch v := item.(type) {
	case map[string]interface{}:
		return v, nil
	case domain.Observation:
		return v, nil
	case domain.PluginRecord:
		return v, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			m[key] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("expecting a mapping, got %T", item)
	}
}
