package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// Archiver serializes scored opportunity batches to JSONL and uploads them to
// object storage, one object per detection pass. Objects are keyed by UTC
// date so downstream analysis can select day ranges with a simple prefix
// scan:
//
//	{prefix}/2026/08/29/opportunities-153000.jsonl
type Archiver struct {
	writer domain.ArchiveWriter
	prefix string
	logger *slog.Logger

	now func() time.Time
}

// NewArchiver creates an Archiver writing under the given key prefix.
func NewArchiver(writer domain.ArchiveWriter, prefix string, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With(slog.String("component", "archiver")),
		now:    time.Now,
	}
}

// ArchiveBatch uploads one batch of opportunity records as a JSONL object.
// An empty batch is a no-op.
func (a *Archiver) ArchiveBatch(ctx context.Context, recs []domain.OpportunityRecord) error {
	if len(recs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("s3blob: encode opportunity %s: %w", rec.ID, err)
		}
	}

	key := a.batchKey(a.now().UTC())
	if err := a.writer.Write(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return err
	}

	a.logger.Debug("archived opportunity batch",
		slog.String("key", key),
		slog.Int("records", len(recs)),
		slog.Int("bytes", buf.Len()))
	return nil
}

func (a *Archiver) batchKey(t time.Time) string {
	key := fmt.Sprintf("%s/opportunities-%s.jsonl",
		t.Format("2006/01/02"), t.Format("150405"))
	if a.prefix == "" {
		return key
	}
	return a.prefix + "/" + key
}
