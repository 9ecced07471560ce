package api

type ImpactResult struct {
	Datetime interface{} `json:"datetime"`
	Duration interface{} `json:"duration"`
	Energy   float64     `json:"e"`
	Embodied float64     `json:"m"`
}

type CalculateRequest struct {
	Observations []map[string]interface{} `json:"observations"`
	Persist      bool                     `json:"persist,omitempty"`
}

type CalculateResponse struct {
	Node    string         `json:"node"`
	Model   string         `json:"model"`
	Results []ImpactResult `json:"results"`
}

type AggregateRequest struct {
	Records []map[string]interface{} `json:"records"`
	Metrics []string                 `json:"metrics"`
	Methods map[string]string        `json:"methods,omitempty"`
}

type AggregateResponse struct {
	Result map[string]float64 `json:"result"`
}

type Node struct {
	Name   string `json:"name"`
	Model  string `json:"model"`
	Metric string `json:"metric"`
}

type LocationsResponse struct {
	Locations []string `json:"locations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
