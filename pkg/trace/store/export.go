package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Exporter writes stored trace events to an output stream.
type Exporter interface {
	Export(ctx context.Context, events []*StoredEvent, w io.Writer) error
}

// JSONExporter exports trace events as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter returns a JSON exporter, indented when pretty is set.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the events to w as a JSON array. An empty result
// exports as "[]".
func (e *JSONExporter) Export(ctx context.Context, events []*StoredEvent, w io.Writer) error {
	if len(events) == 0 {
		_, err := w.Write([]byte("[]\n"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(events, "", "  ")
	} else {
		data, err = json.Marshal(events)
	}
	if err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	return nil
}

// CSVExporter exports trace events as CSV rows.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter returns a CSV exporter, with a header row when
// includeHeader is set.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes the events to w in CSV format, one row per event.
func (e *CSVExporter) Export(ctx context.Context, events []*StoredEvent, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(csvHeader()); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	for _, ev := range events {
		if err := writer.Write(eventToRow(ev)); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"seq", "run_id", "time", "kind",
		"document", "ruleset", "entry_id", "rule",
		"decision", "action", "outcome", "path", "detail",
	}
}

func eventToRow(ev *StoredEvent) []string {
	return []string{
		strconv.FormatInt(ev.Seq, 10),
		ev.RunID,
		ev.Time.Format(time.RFC3339Nano),
		string(ev.Kind),
		ev.Document,
		ev.RuleSet,
		ev.EntryID,
		ev.Rule,
		ev.Decision,
		ev.Action,
		ev.Outcome,
		ev.Path,
		ev.Detail,
	}
}
