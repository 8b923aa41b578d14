package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Someblueman/archgate/internal/syntax"
)

// Engine runs audits for one configuration.
type Engine struct {
	config Config
	logger *slog.Logger
}

// NewEngine returns an engine. A nil logger discards output.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{config: cfg, logger: logger}
}

// extraction is one worker result.
type extraction struct {
	seq       int
	component string
	file      SourceFile
	skipped   *FileParseError
}

// Run scans the tree, aggregates it and evaluates every rule. Fatal
// conditions return an error and no report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	l, err := e.config.resolve()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	e.logger.Info("audit started",
		"root", l.root,
		"language", l.grammar.ID,
		"marker", l.marker,
		"workers", l.workers)

	names, err := l.packageNames(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("packages discovered", "names", names)

	results, err := e.scan(ctx, l)
	if err != nil {
		return nil, err
	}

	facts := make([]FileFact, 0, len(results))
	var findings []Finding
	for _, r := range results {
		if r.skipped != nil {
			e.logger.Warn("skipping unparsable file", "path", r.skipped.Path, "error", r.skipped.Err)
			findings = append(findings, Finding{
				Category: CategorySkippedFile,
				Message:  fmt.Sprintf("file %s was skipped: %v", r.skipped.Path, r.skipped.Err),
				Paths:    []string{r.skipped.Path},
			})
			continue
		}
		facts = append(facts, FileFact{Component: r.component, File: r.file})
	}
	snap := Aggregate(facts)

	stats, err := ComputeStats(snap)
	if err != nil {
		return nil, err
	}

	rules := Rules{
		LibrariesRoot:                l.librariesRel,
		PackagesRoot:                 l.packagesRel,
		PackageNames:                 names,
		Segments:                     l.grammar.Segments,
		MaxFileStatementPercent:      e.config.MaxFileStatementPercent,
		MaxComponentStatementPercent: e.config.MaxComponentStatementPercent,
	}
	findings = append(findings, ComponentOutliers(snap, stats, e.config.OutlierStdDevThreshold)...)
	findings = append(findings, rules.Check(snap)...)

	e.logger.Info("audit finished",
		"components", len(snap.Components),
		"statements", snap.StatementCount,
		"findings", len(findings),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &Report{
		Root:         l.root,
		GeneratedAt:  time.Now().UTC(),
		Snapshot:     snap,
		Stats:        stats,
		PackageNames: names,
		Findings:     findings,
	}, nil
}

// scan streams discovered files to a bounded pool of extraction workers
// and returns the results in discovery order. The first fatal error
// cancels the remaining work and is returned unchanged.
func (e *Engine) scan(ctx context.Context, l layout) ([]extraction, error) {
	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan fileTask)
	results := make(chan extraction)

	g.Go(func() error {
		defer close(tasks)
		return l.discover(gctx, func(task fileTask) error {
			select {
			case tasks <- task:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var workers sync.WaitGroup
	workers.Add(l.workers)
	for i := 0; i < l.workers; i++ {
		g.Go(func() error {
			defer workers.Done()
			parser := syntax.NewParser(l.grammar)
			defer parser.Close()

			for task := range tasks {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				r := extraction{seq: task.seq, component: task.component}
				file, err := extractFile(parser, task)
				if err != nil {
					var perr *FileParseError
					if !e.config.SkipUnparsable || !errors.As(err, &perr) {
						return err
					}
					r.skipped = perr
				} else {
					r.file = file
					e.logger.Debug("extracted", "path", file.Path, "statements", file.StatementCount, "imports", len(file.ImportTargets))
				}

				select {
				case results <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	var collected []extraction
	for r := range results {
		collected = append(collected, r)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].seq < collected[j].seq
	})
	return collected, nil
}
