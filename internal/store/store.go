// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives aggregation runs in a SQLite database so results
// can be listed and re-read without rerunning the engine. Failed runs keep
// their tag-conflict record for audit instead of intensities.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pepagg/pkg/types"
)

const dbFile = "pepagg.db"

// Run statuses stored in the runs table.
const (
	StatusOK        = "ok"
	StatusConflicts = "conflicts"
)

// Store manages the run archive database.
type Store struct {
	db      *sql.DB
	maxRuns int
}

// NewStore opens or creates the archive database at cfg.Dir/pepagg.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxRuns := cfg.MaxRuns
	if maxRuns <= 0 {
		maxRuns = 20
	}

	s := &Store{db: db, maxRuns: maxRuns}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created TEXT NOT NULL,
			status TEXT NOT NULL,
			tool TEXT,
			version TEXT,
			method TEXT,
			init_method TEXT,
			top_n INTEGER,
			converged INTEGER,
			iterations INTEGER,
			n_proteins INTEGER,
			n_samples INTEGER,
			samples TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS proteins (
			run_id TEXT NOT NULL REFERENCES runs(id),
			protein_id TEXT NOT NULL,
			n_pep_total INTEGER,
			n_pep_spec INTEGER,
			n_pep_shared INTEGER,
			intensities TEXT,
			tags TEXT,
			used_total TEXT,
			used_spec TEXT,
			used_shared TEXT,
			PRIMARY KEY (run_id, protein_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proteins_run ON proteins(run_id)`,
		`CREATE TABLE IF NOT EXISTS issues (
			run_id TEXT NOT NULL REFERENCES runs(id),
			protein_id TEXT NOT NULL,
			peptides TEXT NOT NULL,
			PRIMARY KEY (run_id, protein_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun archives a successful aggregation run under the given ID.
func (s *Store) SaveRun(ctx context.Context, id string, ds *types.ProteinDataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	samplesJSON, _ := json.Marshal(ds.Intensities.ColIDs)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created, status, tool, version, method, init_method, top_n,
			converged, iterations, n_proteins, n_samples, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), StatusOK,
		ds.Meta.Tool, ds.Meta.Version, ds.Meta.Method, ds.Meta.InitMethod, ds.Meta.TopN,
		ds.Converged, ds.Iterations,
		ds.Intensities.NRows(), ds.Intensities.NCols(), string(samplesJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO proteins (run_id, protein_id, n_pep_total, n_pep_spec, n_pep_shared,
			intensities, tags, used_total, used_spec, used_shared)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing protein insert: %w", err)
	}
	defer stmt.Close()

	for g, pid := range ds.Intensities.RowIDs {
		_, err := stmt.ExecContext(ctx,
			id, pid,
			ds.Counts.Total[g], ds.Counts.Specific[g], ds.Counts.Shared[g],
			marshalIntensities(ds.Intensities.Values[g]),
			marshalTags(ds.Tags.Tags[g]),
			marshalInts(ds.Counts.UsedTotal[g]),
			marshalInts(ds.Counts.UsedSpecific[g]),
			marshalInts(ds.Counts.UsedShared[g]),
		)
		if err != nil {
			return fmt.Errorf("inserting protein %s: %w", pid, err)
		}
	}

	return tx.Commit()
}

// SaveConflicts archives a run rejected by the tag conflict gate, keeping
// the issue record for audit.
func (s *Store) SaveConflicts(ctx context.Context, id string, meta types.RunMeta, issues types.Issues) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created, status, tool, version, method, init_method, top_n,
			converged, iterations, n_proteins, n_samples, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, '[]')`,
		id, time.Now().UTC().Format(time.RFC3339), StatusConflicts,
		meta.Tool, meta.Version, meta.Method, meta.InitMethod, meta.TopN,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", id, err)
	}

	for _, pid := range issues.ProteinIDs() {
		pepsJSON, _ := json.Marshal(issues[pid])
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issues (run_id, protein_id, peptides) VALUES (?, ?, ?)`,
			id, pid, string(pepsJSON),
		); err != nil {
			return fmt.Errorf("inserting issue for %s: %w", pid, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the archive listing.
type RunSummary struct {
	ID         string
	Created    string
	Status     string
	Method     string
	NProteins  int
	NSamples   int
	Converged  bool
	Iterations int
}

// ListRuns returns the most recent runs, newest first, up to the
// configured maximum.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created, status, method, n_proteins, n_samples, converged, iterations
		 FROM runs ORDER BY created DESC LIMIT ?`, s.maxRuns)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Created, &r.Status, &r.Method,
			&r.NProteins, &r.NSamples, &r.Converged, &r.Iterations); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

// GetRun reconstructs an archived successful run as a protein dataset.
func (s *Store) GetRun(ctx context.Context, id string) (*types.ProteinDataset, error) {
	var (
		status, method, initMethod, samplesJSON string
		meta                                    types.RunMeta
		converged                               bool
		iterations, topN                        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, tool, version, method, init_method, top_n, converged, iterations, samples
		 FROM runs WHERE id = ?`, id,
	).Scan(&status, &meta.Tool, &meta.Version, &method, &initMethod, &topN,
		&converged, &iterations, &samplesJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	if status != StatusOK {
		return nil, fmt.Errorf("run %s was rejected with tag conflicts; see its issues", id)
	}
	meta.Method = method
	meta.InitMethod = initMethod
	meta.TopN = topN

	var samples []string
	if err := json.Unmarshal([]byte(samplesJSON), &samples); err != nil {
		return nil, fmt.Errorf("decoding samples for run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT protein_id, n_pep_total, n_pep_spec, n_pep_shared,
			intensities, tags, used_total, used_spec, used_shared
		 FROM proteins WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("reading proteins for run %s: %w", id, err)
	}
	defer rows.Close()

	var (
		proteinIDs  []string
		intensities [][]float64
		tagRows     [][]types.Tag
		counts      = &types.PeptideCounts{SampleIDs: samples}
	)
	for rows.Next() {
		var (
			pid                                        string
			total, spec, shared                        int
			intJSON, tagsJSON, utJSON, usJSON, ushJSON string
		)
		if err := rows.Scan(&pid, &total, &spec, &shared,
			&intJSON, &tagsJSON, &utJSON, &usJSON, &ushJSON); err != nil {
			return nil, fmt.Errorf("scanning protein: %w", err)
		}

		vals, err := unmarshalIntensities(intJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding intensities for %s: %w", pid, err)
		}
		tags, err := unmarshalTags(tagsJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding tags for %s: %w", pid, err)
		}

		proteinIDs = append(proteinIDs, pid)
		intensities = append(intensities, vals)
		tagRows = append(tagRows, tags)
		counts.Total = append(counts.Total, total)
		counts.Specific = append(counts.Specific, spec)
		counts.Shared = append(counts.Shared, shared)
		counts.UsedTotal = append(counts.UsedTotal, unmarshalInts(utJSON))
		counts.UsedSpecific = append(counts.UsedSpecific, unmarshalInts(usJSON))
		counts.UsedShared = append(counts.UsedShared, unmarshalInts(ushJSON))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading proteins for run %s: %w", id, err)
	}
	counts.ProteinIDs = proteinIDs

	q := types.NewMatrix(proteinIDs, samples)
	tm := types.NewTagMatrix(proteinIDs, samples)
	for g := range proteinIDs {
		copy(q.Values[g], intensities[g])
		copy(tm.Tags[g], tagRows[g])
	}

	return &types.ProteinDataset{
		Intensities: q,
		Tags:        tm,
		Counts:      counts,
		Meta:        meta,
		Converged:   converged,
		Iterations:  iterations,
	}, nil
}

// GetIssues returns the conflict record of a rejected run.
func (s *Store) GetIssues(ctx context.Context, id string) (types.Issues, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT protein_id, peptides FROM issues WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("reading issues for run %s: %w", id, err)
	}
	defer rows.Close()

	issues := make(types.Issues)
	for rows.Next() {
		var pid, pepsJSON string
		if err := rows.Scan(&pid, &pepsJSON); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		var peps []string
		if err := json.Unmarshal([]byte(pepsJSON), &peps); err != nil {
			return nil, fmt.Errorf("decoding issue for %s: %w", pid, err)
		}
		issues[pid] = peps
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("run %s has no issues recorded", id)
	}
	return issues, nil
}

// JSON cannot carry NaN, so missing intensities round-trip as null.

func marshalIntensities(vals []float64) string {
	ptrs := make([]*float64, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			v := v
			ptrs[i] = &v
		}
	}
	b, _ := json.Marshal(ptrs)
	return string(b)
}

func unmarshalIntensities(s string) ([]float64, error) {
	var ptrs []*float64
	if err := json.Unmarshal([]byte(s), &ptrs); err != nil {
		return nil, err
	}
	vals := make([]float64, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			vals[i] = math.NaN()
		} else {
			vals[i] = *p
		}
	}
	return vals, nil
}

func marshalTags(tags []types.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	b, _ := json.Marshal(names)
	return string(b)
}

func unmarshalTags(s string) ([]types.Tag, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, err
	}
	tags := make([]types.Tag, len(names))
	for i, n := range names {
		t, err := types.ParseTag(n)
		if err != nil {
			return nil, err
		}
		tags[i] = t
	}
	return tags, nil
}

func marshalInts(vals []int) string {
	b, _ := json.Marshal(vals)
	return string(b)
}

func unmarshalInts(s string) []int {
	var vals []int
	_ = json.Unmarshal([]byte(s), &vals)
	return vals
}
