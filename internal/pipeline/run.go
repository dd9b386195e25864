// Package pipeline orchestrates a full run: load both input tables,
// reconcile them into the canonical record set, derive the aggregate views,
// and deliver everything to the configured sink.
//
// The reconciliation core is single-threaded and deterministic. Concurrency
// exists only at the edges: the two source loads run in parallel, and
// warehouse uploads fan out over a small worker pool. A structural failure
// (unreadable source, unreachable warehouse) aborts the run before any
// output is considered valid; a failed upsert batch is counted, logged, and
// skipped so one bad batch cannot sink the rest of the load.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"moviesetl/internal/aggregate"
	"moviesetl/internal/config"
	"moviesetl/internal/metrics"
	"moviesetl/internal/movie"
	"moviesetl/internal/recon"
	"moviesetl/internal/sink"
	"moviesetl/internal/sink/csvdir"
	"moviesetl/internal/source"
)

const (
	defaultJobName   = "movies_etl"
	defaultBatchSize = 500
)

// Summary is the user-visible result of a completed run.
type Summary struct {
	Job string

	RowsProcessed int
	InputDeduped  int

	WithYear      int
	WithGenres    int
	WithDirectors int

	// MergedByTitle reports that the ratings table resolved no identifier
	// and the lossy title fallback join was used; TitleJoined counts rows
	// it actually enriched.
	MergedByTitle bool
	TitleJoined   int

	// Warehouse-only counters. Zero on the files path.
	BatchesOK     int64
	BatchesFailed int64
	RowsUpserted  int64
	RowsFailed    int64

	Duration time.Duration
}

// warehouseOpener is swapped by tests to run against a fake warehouse.
var warehouseOpener = sink.New

// Run executes the pipeline described by cfg and returns its summary.
func Run(ctx context.Context, cfg config.Pipeline) (*Summary, error) {
	job := cfg.Job
	if job == "" {
		job = defaultJobName
	}

	start := time.Now()
	sum := &Summary{Job: job}

	meta, ratings, err := loadSources(ctx, job, cfg)
	if err != nil {
		return nil, err
	}

	reconStart := time.Now()
	res, err := recon.Reconcile(meta, ratings, recon.Options{DedupeInput: cfg.Runtime.DedupeInput})
	metrics.RecordStep(job, "reconcile", err, time.Since(reconStart))
	if err != nil {
		return nil, fmt.Errorf("pipeline: reconcile: %w", err)
	}

	sum.RowsProcessed = len(res.Movies)
	sum.InputDeduped = res.InputDeduped
	sum.WithYear = res.WithYear
	sum.WithGenres = res.WithGenres
	sum.WithDirectors = res.WithDirectors
	sum.MergedByTitle = res.MergedByTitle
	sum.TitleJoined = res.TitleJoined

	metrics.RecordRow(job, "processed", int64(sum.RowsProcessed))
	metrics.RecordRow(job, "dedupe_dropped", int64(sum.InputDeduped))
	metrics.RecordRow(job, "title_joined", int64(sum.TitleJoined))

	log.Printf("stage=reconcile job=%s rows=%d with_year=%d with_genres=%d with_directors=%d merged_by_title=%v title_joined=%d deduped=%d",
		job, sum.RowsProcessed, sum.WithYear, sum.WithGenres, sum.WithDirectors,
		sum.MergedByTitle, sum.TitleJoined, sum.InputDeduped)

	genreFacts := aggregate.GenreFacts(res.Movies)
	directorFacts := aggregate.DirectorFacts(res.Movies)

	switch cfg.Sink.Kind {
	case "files":
		if err := runFiles(job, cfg, res.Movies, genreFacts, directorFacts); err != nil {
			return nil, err
		}
	case "warehouse":
		if err := runWarehouse(ctx, job, cfg, sum, res.Movies, genreFacts, directorFacts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("pipeline: unsupported sink kind=%q", cfg.Sink.Kind)
	}

	sum.Duration = time.Since(start).Truncate(time.Millisecond)
	log.Printf("stage=done job=%s rows=%d duration=%s", job, sum.RowsProcessed, sum.Duration)
	return sum, nil
}

// loadSources loads the metadata and ratings tables concurrently. Either
// load failing is structural and aborts the run.
func loadSources(ctx context.Context, job string, cfg config.Pipeline) (meta, ratings *source.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		t, err := source.Load(gctx, cfg.Meta)
		metrics.RecordStep(job, "load_meta", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("pipeline: load metadata source: %w", err)
		}
		meta = t
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		t, err := source.Load(gctx, cfg.Ratings)
		metrics.RecordStep(job, "load_ratings", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("pipeline: load ratings source: %w", err)
		}
		ratings = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	log.Printf("stage=load job=%s meta_rows=%d ratings_rows=%d", job, len(meta.Rows), len(ratings.Rows))
	return meta, ratings, nil
}

func runFiles(job string, cfg config.Pipeline, movies []movie.Canonical,
	genreFacts []movie.GenreFact, directorFacts []movie.DirectorFact) error {

	ds := &csvdir.Dataset{
		Movies:          movies,
		GenreFacts:      genreFacts,
		DirectorFacts:   directorFacts,
		YearCounts:      aggregate.YearCounts(movies),
		GenreYearCounts: aggregate.GenreYearCounts(genreFacts),
		DecadeTopVoted:  aggregate.DecadeTopVoted(movies),
	}

	start := time.Now()
	err := csvdir.WriteAll(cfg.Sink.Files.OutDir, ds)
	metrics.RecordStep(job, "write_files", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	log.Printf("stage=write_files job=%s out_dir=%s", job, cfg.Sink.Files.OutDir)
	return nil
}

func runWarehouse(ctx context.Context, job string, cfg config.Pipeline, sum *Summary,
	movies []movie.Canonical, genreFacts []movie.GenreFact, directorFacts []movie.DirectorFact) error {

	wh, err := warehouseOpener(ctx, sink.Config{
		Kind: cfg.Sink.Warehouse.Kind,
		DSN:  cfg.Sink.Warehouse.DSN,
	})
	if err != nil {
		return fmt.Errorf("pipeline: open warehouse: %w", err)
	}
	defer wh.Close()

	if cfg.Sink.Warehouse.Reset {
		if err := wh.Reset(ctx); err != nil {
			return fmt.Errorf("pipeline: reset warehouse: %w", err)
		}
	} else if err := wh.EnsureTables(ctx); err != nil {
		return fmt.Errorf("pipeline: ensure tables: %w", err)
	}

	loadStart := time.Now()
	uploadMovies(ctx, job, cfg.Runtime, wh, movies, sum)
	metrics.RecordStep(job, "load_warehouse", nil, time.Since(loadStart))

	metrics.RecordRow(job, "upserted", sum.RowsUpserted)
	metrics.RecordRow(job, "upsert_failed", sum.RowsFailed)
	metrics.RecordBatches(job, sum.BatchesOK)

	log.Printf("stage=load_warehouse job=%s kind=%s batches_ok=%d batches_failed=%d rows_upserted=%d rows_failed=%d",
		job, cfg.Sink.Warehouse.Kind, sum.BatchesOK, sum.BatchesFailed, sum.RowsUpserted, sum.RowsFailed)

	// Stats tables are small; write them whole. A failure here is structural.
	statsStart := time.Now()
	err = wh.UpsertGenreStats(ctx, aggregate.GenreTotals(genreFacts))
	if err == nil {
		err = wh.UpsertDirectorStats(ctx, aggregate.DirectorTotals(directorFacts))
	}
	metrics.RecordStep(job, "load_stats", err, time.Since(statsStart))
	if err != nil {
		return fmt.Errorf("pipeline: upsert stats: %w", err)
	}
	return nil
}

// uploadMovies chunks the canonical rows into batches and upserts them from
// a fixed pool of workers. A failed batch increments the failure counters
// and the run continues; remaining batches are unaffected.
func uploadMovies(ctx context.Context, job string, rt config.RuntimeConfig,
	wh sink.Warehouse, movies []movie.Canonical, sum *Summary) {

	batchSize := rt.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workers := rt.LoaderWorkers
	if workers <= 0 {
		workers = 1
	}

	var batchesOK, batchesFailed, rowsUpserted, rowsFailed atomic.Int64

	batchCh := make(chan []movie.Canonical, workers*2)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for batch := range batchCh {
				start := time.Now()
				n, err := wh.UpsertMovies(ctx, batch)
				dur := time.Since(start).Truncate(time.Millisecond)

				if err != nil {
					batchesFailed.Add(1)
					rowsFailed.Add(int64(len(batch)))
					log.Printf("stage=upsert_batch job=%s worker=%d status=error rows=%d duration=%s err=%v",
						job, workerID, len(batch), dur, err)
					continue
				}
				batchesOK.Add(1)
				rowsUpserted.Add(n)
			}
		}(w)
	}

	for start := 0; start < len(movies); start += batchSize {
		end := start + batchSize
		if end > len(movies) {
			end = len(movies)
		}
		batchCh <- movies[start:end]
	}
	close(batchCh)
	wg.Wait()

	sum.BatchesOK = batchesOK.Load()
	sum.BatchesFailed = batchesFailed.Load()
	sum.RowsUpserted = rowsUpserted.Load()
	sum.RowsFailed = rowsFailed.Load()
}
