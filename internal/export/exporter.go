// Package export writes per-cycle reports (collected odds, detected
// surebets) to local CSV/JSON files and optionally archives them to object
// storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// Config configures the exporter.
type Config struct {
	// Dir is the local directory reports are written to.
	Dir string

	// Format selects the surebet report encoding: "csv", "json", or "both".
	// Odds dumps are always CSV.
	Format string

	// Blob, when non-nil, receives a copy of every written report under
	// Prefix/<date>/<filename>.
	Blob   domain.BlobWriter
	Prefix string
}

// Exporter writes cycle reports. Safe for use from a single scanner
// goroutine; files are named by timestamp so cycles never collide.
type Exporter struct {
	dir    string
	format string
	blob   domain.BlobWriter
	prefix string
	logger *slog.Logger
}

// New creates an Exporter. The directory is created on first write.
func New(cfg Config, logger *slog.Logger) *Exporter {
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "both"
	}
	return &Exporter{
		dir:    cfg.Dir,
		format: format,
		blob:   cfg.Blob,
		prefix: cfg.Prefix,
		logger: logger.With(slog.String("component", "export")),
	}
}

// WriteOdds dumps a cycle's collected quotes as CSV.
func (e *Exporter) WriteOdds(ctx context.Context, records []domain.QuoteRecord, ts time.Time) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"timestamp", "match", "league", "market", "outcome", "bookmaker", "odds"})
	for _, r := range records {
		_ = w.Write([]string{
			r.CollectedAt.UTC().Format(time.RFC3339),
			r.MatchName,
			r.League,
			r.Market,
			r.Outcome,
			r.Bookmaker,
			formatFloat(r.Odds),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: encode odds csv: %w", err)
	}

	name := "odds_" + ts.UTC().Format("20060102_150405") + ".csv"
	if err := e.persist(ctx, name, buf.Bytes(), "text/csv"); err != nil {
		return "", err
	}
	return name, nil
}

// WriteSurebets writes a cycle's detected surebets in the configured
// format(s) and returns the written file names.
func (e *Exporter) WriteSurebets(ctx context.Context, surebets []domain.Surebet, ts time.Time) ([]string, error) {
	if len(surebets) == 0 {
		return nil, nil
	}

	stamp := ts.UTC().Format("20060102_150405")
	var written []string

	if e.format == "json" || e.format == "both" {
		data, err := json.MarshalIndent(surebetReport{
			GeneratedAt: ts.UTC(),
			Count:       len(surebets),
			Surebets:    surebets,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: encode surebets json: %w", err)
		}
		name := "surebets_" + stamp + ".json"
		if err := e.persist(ctx, name, data, "application/json"); err != nil {
			return nil, err
		}
		written = append(written, name)
	}

	if e.format == "csv" || e.format == "both" {
		buf := &bytes.Buffer{}
		w := csv.NewWriter(buf)
		_ = w.Write([]string{"detected_at", "match", "league", "market", "margin_percent", "roi_percent", "total_stake", "guaranteed_profit", "legs"})
		for _, sb := range surebets {
			_ = w.Write([]string{
				sb.DetectedAt.UTC().Format(time.RFC3339),
				sb.MatchName,
				sb.League,
				sb.Market,
				formatFloat(sb.MarginPercent),
				formatFloat(sb.ROIPercent),
				formatFloat(sb.TotalStake),
				formatFloat(sb.GuaranteedProfit),
				formatLegs(sb.Legs),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("export: encode surebets csv: %w", err)
		}
		name := "surebets_" + stamp + ".csv"
		if err := e.persist(ctx, name, buf.Bytes(), "text/csv"); err != nil {
			return nil, err
		}
		written = append(written, name)
	}

	return written, nil
}

// surebetReport is the JSON envelope for a surebet export.
type surebetReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	Surebets    []domain.Surebet `json:"surebets"`
}

// persist writes a report to disk and, when archiving is configured,
// uploads a copy. An upload failure does not fail the cycle; the local file
// is the source of truth.
func (e *Exporter) persist(ctx context.Context, name string, data []byte, contentType string) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("export: create dir %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	e.logger.Info("report written",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)

	if e.blob == nil {
		return nil
	}
	key := e.prefix + "/" + time.Now().UTC().Format("2006/01/02") + "/" + name
	if err := e.blob.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		e.logger.Warn("report archive upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// formatLegs flattens a stake plan to "Outcome@bookmaker:odds:stake|..."
// for the CSV column.
func formatLegs(legs []domain.Allocation) string {
	parts := make([]string, 0, len(legs))
	for _, l := range legs {
		parts = append(parts, fmt.Sprintf("%s@%s:%s:%s",
			l.Outcome, l.Bookmaker, formatFloat(l.Odds), formatFloat(l.Stake)))
	}
	return strings.Join(parts, "|")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
