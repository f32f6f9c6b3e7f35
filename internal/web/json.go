package web

import (
	"encoding/json"

	"github.com/Anticdope/cap-test-2/internal/status"
)

// indexJSON is the envelope served at /index.json.
type indexJSON struct {
	Status status.StatusJSON `json:"status"`
}

func formatJSON(snap status.Snapshot) []byte {
	b, err := json.MarshalIndent(indexJSON{Status: status.ToJSON(snap)}, "", "  ")
	if err != nil {
		return []byte(`{"error":"marshal failed"}`)
	}
	return b
}
