package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
)

var ErrNoArchive = errors.New("no report archive configured")

// Report is the exported form of a session's insights.
type Report struct {
	SessionID  string           `json:"session_id"`
	Role       string           `json:"role"`
	ExportedAt time.Time        `json:"exported_at"`
	Insights   []domain.Insight `json:"insights"`
}

// Exporter writes insight reports to an archive.
type Exporter struct {
	archive domain.Archive
	now     func() time.Time
}

func NewExporter(archive domain.Archive) *Exporter {
	return &Exporter{archive: archive, now: time.Now}
}

// Export uploads the insights as JSON and returns the object location.
func (e *Exporter) Export(ctx context.Context, sessionID, role string, list []domain.Insight) (string, error) {
	if e == nil || e.archive == nil {
		return "", ErrNoArchive
	}
	at := e.now().UTC()
	data, err := json.MarshalIndent(Report{SessionID: sessionID, Role: role, ExportedAt: at, Insights: list}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	key := fmt.Sprintf("reports/%s/%s.json", sessionID, at.Format("20060102T150405Z"))
	return e.archive.Put(ctx, key, data, "application/json")
}
