package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
)

// VerifyOptions selects and tunes a batch run.
type VerifyOptions struct {
	// Version overrides the installed version of every standard and
	// must-use plugin. May be a constraint when the resolver supports it.
	Version        string
	Exclude        []string
	All            bool
	Strict         bool
	ExcludeMustUse bool
}

// VerifyService verifies a batch of installed plugins against their
// published checksums. One service serves one inventory snapshot.
type VerifyService struct {
	inventory  *entities.Inventory
	resolver   *services.ArtifactResolver
	reconciler *services.Reconciler
	notifier   ports.Notifier
	progress   ports.ProgressObserver
	recorder   ports.RunRecorder
	logger     *slog.Logger
	workers    int
}

// VerifyServiceOption configures a VerifyService.
type VerifyServiceOption func(*VerifyService)

// NewVerifyService creates a verify service. Inventory and resolver are
// required dependencies.
func NewVerifyService(
	inventory *entities.Inventory,
	resolver *services.ArtifactResolver,
	opts ...VerifyServiceOption,
) *VerifyService {
	s := &VerifyService{
		inventory:  inventory,
		resolver:   resolver,
		reconciler: services.NewReconciler(nil),
		notifier:   discardNotifier{},
		progress:   noProgress{},
		logger:     slog.Default(),
		workers:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithNotifier sets where skip and lookup warnings go.
func WithNotifier(n ports.Notifier) VerifyServiceOption {
	return func(s *VerifyService) { s.notifier = n }
}

// WithProgress sets the progress observer.
func WithProgress(p ports.ProgressObserver) VerifyServiceOption {
	return func(s *VerifyService) { s.progress = p }
}

// WithRecorder stores every completed run.
func WithRecorder(r ports.RunRecorder) VerifyServiceOption {
	return func(s *VerifyService) { s.recorder = r }
}

// WithReconciler sets the reconciler.
func WithReconciler(r *services.Reconciler) VerifyServiceOption {
	return func(s *VerifyService) { s.reconciler = r }
}

// WithWorkers verifies up to n artifacts concurrently. Output order does
// not depend on n.
func WithWorkers(n int) VerifyServiceOption {
	return func(s *VerifyService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) VerifyServiceOption {
	return func(s *VerifyService) { s.logger = l }
}

type job struct {
	installed entities.InstalledArtifact
	excluded  bool
}

// Verify checks the named plugins, or every plugin when opts.All is set,
// followed by all must-use plugins unless opts.ExcludeMustUse is set.
// A failure in one artifact never stops the batch. On cancellation the
// report covers the artifacts finished so far and ctx.Err() is returned.
func (s *VerifyService) Verify(ctx context.Context, names []string, opts VerifyOptions) (*entities.Report, error) {
	if len(names) == 0 && !opts.All {
		return nil, entities.ErrNoArtifactsSpecified
	}

	jobs := s.plan(names, opts)
	results := make([]entities.ArtifactResult, len(jobs))
	done := make([]bool, len(jobs))

	s.progress.Start(len(jobs))
	runErr := s.run(ctx, jobs, results, done, opts)
	s.progress.Finish()

	finished := make([]entities.ArtifactResult, 0, len(jobs))
	for i := range jobs {
		if done[i] {
			finished = append(finished, results[i])
		}
	}
	report := entities.NewReport(finished)

	if runErr != nil {
		return report, runErr
	}

	s.logger.Info("verification finished",
		"total", report.Summary.Total,
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
		"skipped", report.Summary.Skipped)

	if s.recorder != nil {
		id, err := s.recorder.Record(ctx, report, opts.Strict)
		if err != nil {
			s.logger.Warn("failed to record run", "error", err)
		} else {
			report.RunID = id
		}
	}

	return report, nil
}

func (s *VerifyService) plan(names []string, opts VerifyOptions) []job {
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = struct{}{}
	}
	isExcluded := func(name string) bool {
		_, ok := excluded[name]
		return ok
	}

	var jobs []job
	if opts.All {
		for _, p := range s.inventory.Plugins {
			jobs = append(jobs, job{installed: p, excluded: isExcluded(p.Name)})
		}
	} else {
		seen := make(map[string]struct{}, len(names))
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			p, ok := s.inventory.FindPlugin(name)
			if !ok {
				s.notifier.Warn(fmt.Sprintf("The '%s' plugin could not be found.", name))
				continue
			}
			jobs = append(jobs, job{installed: p, excluded: isExcluded(p.Name)})
		}
	}

	if !opts.ExcludeMustUse {
		for _, mu := range s.inventory.MustUse {
			jobs = append(jobs, job{installed: mu, excluded: isExcluded(mu.Name)})
		}
	}
	return jobs
}

func (s *VerifyService) run(ctx context.Context, jobs []job, results []entities.ArtifactResult, done []bool, opts VerifyOptions) error {
	if s.workers <= 1 {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.verifyOne(ctx, j, opts)
			if err != nil {
				return err
			}
			results[i], done[i] = res, true
			s.progress.Done(j.installed.Name)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.verifyOne(gctx, j, opts)
			if err != nil {
				return err
			}
			// Each goroutine owns slot i.
			results[i], done[i] = res, true
			s.progress.Done(j.installed.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// verifyOne returns an error only when ctx is done.
func (s *VerifyService) verifyOne(ctx context.Context, j job, opts VerifyOptions) (entities.ArtifactResult, error) {
	installed := j.installed
	res := entities.ArtifactResult{
		Name:    installed.Name,
		Version: installed.Version,
		Kind:    installed.Kind,
	}

	if j.excluded {
		res.Outcome = entities.OutcomeSkipped
		res.Skip = entities.ErrExcluded
		return res, nil
	}

	resolution, err := s.resolver.Resolve(ctx, installed, opts.Version)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		var skip *entities.SkipError
		if errors.As(err, &skip) {
			s.notifier.Warn(skip.Error())
			res.Outcome = entities.OutcomeSkipped
			res.Skip = skip
			return res, nil
		}

		s.logger.Error("artifact could not be inspected", "artifact", installed.Name, "error", err)
		res.Outcome = entities.OutcomeFailed
		res.Findings = []entities.Finding{{
			PluginName: installed.Name,
			File:       installed.MainFile,
			Message:    fmt.Sprintf("Could not list plugin files: %v", err),
		}}
		return res, nil
	}

	artifact := resolution.Artifact
	res.Version = artifact.Version()

	fileResults := s.reconciler.Reconcile(artifact.Directory(), resolution.Manifest, resolution.LocalFiles, opts.Strict)
	for _, fr := range fileResults {
		if !fr.Clean() {
			res.Findings = append(res.Findings, entities.NewFinding(installed.Name, fr))
		}
	}

	if len(res.Findings) > 0 {
		res.Outcome = entities.OutcomeFailed
	} else {
		res.Outcome = entities.OutcomeVerified
	}

	s.logger.Debug("artifact verified",
		"artifact", installed.Name,
		"version", artifact.Version(),
		"files", len(resolution.LocalFiles),
		"findings", len(res.Findings))

	return res, nil
}

type discardNotifier struct{}

func (discardNotifier) Warn(string) {}

type noProgress struct{}

func (noProgress) Start(int)   {}
func (noProgress) Done(string) {}
func (noProgress) Finish()     {}
