package domain

// ImpactResult is the canonical impact of one observation.
type ImpactResult struct {
	Energy   float64 `json:"e" yaml:"e"` // kWh
	Embodied float64 `json:"m" yaml:"m"` // gCO2eq
}

// StaticParams holds model configuration captured once at configure time.
type StaticParams map[string]interface{}

// Clone returns a shallow copy so callers can add per-request keys without touching the original.
func (p StaticParams) Clone() StaticParams {
	out := make(StaticParams, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value under key when it is a non-empty string.
func (p StaticParams) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Has reports whether key is present, regardless of its value.
func (p StaticParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}
