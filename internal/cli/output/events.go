package output

// ReplayEvent is one JSON-lines progress event emitted by replay --json.
type ReplayEvent struct {
	Event        string `json:"event"`
	RunID        string `json:"run_id,omitempty"`
	File         string `json:"file,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Status       string `json:"status,omitempty"`
	StepsApplied int    `json:"steps_applied,omitempty"`
	Error        string `json:"error,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	Succeeded    int    `json:"succeeded,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	Skipped      int    `json:"skipped,omitempty"`
	TotalMS      int64  `json:"total_ms,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}
