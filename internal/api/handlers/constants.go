package handlers

const (
	apiVersion = "1.0.0"

	// Response formats for pattern endpoints
	formatJSON = "json"
	formatMIDI = "midi"

	contentTypeMIDI = "audio/midi"
	seedHeader      = "X-Pattern-Seed"
)
