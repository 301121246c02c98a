// Package bootstrap builds a pull from configuration: it opens the selected
// backends once and assembles fresh per-run harvest state for every run.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	"github.com/lisanmuaddib/resource-pull/internal/vocabulary"
	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/sheets"
	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/twitter"
)

// App holds the long-lived collaborators shared by every run.
type App struct {
	Config *Config
	Logger *logrus.Logger

	searcher harvest.Searcher
	sink     harvest.Sink
	store    harvest.LedgerStore
	recorder harvest.RunRecorder
	vocab    *vocabulary.Vocabulary
	sleep    harvest.SleepFunc
	closers  []func() error
}

// Deps lets callers supply collaborators directly instead of building them
// from configuration. Nil fields are built as usual.
type Deps struct {
	Searcher harvest.Searcher
	Sink     harvest.Sink
	Store    harvest.LedgerStore
	Recorder harvest.RunRecorder
	Vocab    *vocabulary.Vocabulary
	Sleep    harvest.SleepFunc
}

// New opens every backend named in config.
func New(ctx context.Context, config *Config, logger *logrus.Logger) (*App, error) {
	return NewWithDeps(ctx, config, logger, Deps{})
}

func NewWithDeps(ctx context.Context, config *Config, logger *logrus.Logger, deps Deps) (*App, error) {
	app := &App{
		Config:   config,
		Logger:   logger,
		searcher: deps.Searcher,
		sink:     deps.Sink,
		store:    deps.Store,
		recorder: deps.Recorder,
		vocab:    deps.Vocab,
		sleep:    deps.Sleep,
	}
	if app.sleep == nil {
		app.sleep = harvest.SleepContext
	}

	if err := app.build(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	if a.searcher == nil {
		twitterConfig, err := twitter.NewTwitterConfig()
		if err != nil {
			return fmt.Errorf("failed to create twitter config: %w", err)
		}
		twitterConfig.Logger = a.Logger
		client, err := twitter.NewTwitterClient(twitterConfig)
		if err != nil {
			return fmt.Errorf("failed to create twitter client: %w", err)
		}
		a.searcher = NewTwitterSearcher(client)
	}

	var sheetsClient *sheets.Client
	needSheets := (a.sink == nil && a.Config.SinkMode == SinkSheets) ||
		(a.vocab == nil && a.Config.VocabSource == VocabSheets)
	if needSheets {
		client, err := newSheetsClient(ctx, a.Logger)
		if err != nil {
			return err
		}
		sheetsClient = client
	}

	if a.sink == nil {
		sink, err := newSink(a.Config, sheetsClient)
		if err != nil {
			return err
		}
		a.sink = sink
	}

	if a.vocab == nil {
		vocab, err := loadVocabulary(ctx, a.Config, sheetsClient)
		if err != nil {
			return err
		}
		a.vocab = vocab
	}

	if a.store == nil {
		store, recorder, closers, err := newLedgerStore(ctx, a.Config, a.Logger)
		if err != nil {
			return err
		}
		a.store = store
		a.closers = append(a.closers, closers...)
		if a.recorder == nil {
			a.recorder = recorder
		}
	}

	a.Logger.WithFields(logrus.Fields{
		"ledger_backend": a.Config.LedgerBackend,
		"sink_mode":      a.Config.SinkMode,
		"vocab_source":   a.Config.VocabSource,
		"locations":      len(a.vocab.Locations),
		"resources":      len(a.vocab.Resources),
	}).Info("Pull configured")

	return nil
}

// NewRun assembles a fresh orchestrator. Budgets, the ledger and the write
// buffer never carry over between runs.
func (a *App) NewRun(runID string) (*harvest.PullOrchestrator, error) {
	pull := a.Config.Pull
	observer := harvest.NewLogObserver(a.Logger, runID)

	matcher, err := harvest.NewTermMatcher(a.vocab.Locations, a.vocab.Resources, a.vocab.ResourceDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to compile resource details: %w", err)
	}

	ledger := harvest.NewDedupLedger(a.store)

	searchBudget := harvest.NewRequestBudget("search", pull.SearchCallsPerWindow, pull.SearchWindow)
	fetcher := harvest.NewRateLimitedFetcher(a.searcher, searchBudget, a.sleep, pull.RequestDelay, observer)

	planner := harvest.NewQueryPlanner(harvest.QueryTermSets{
		Locations:        a.vocab.Locations,
		Resources:        a.vocab.Resources,
		PhoneKeywords:    a.vocab.PhoneKeywords,
		ExclusionTerms:   a.vocab.ExclusionTerms,
		ExclusionPhrases: a.vocab.ExclusionPhrases,
		ResourceDetails:  a.vocab.ResourceDetails,
	}, pull.Planner(), fetcher, a.sleep, observer)

	if _, err := planner.Plan(); err != nil {
		return nil, err
	}

	projector := harvest.NewResultProjector(matcher, ledger, a.vocab.ExclusionPhrases, observer)

	sinkBudget := harvest.NewRequestBudget("sink", pull.SinkCallsPerWindow, pull.SinkWindow)
	writer := harvest.NewThrottledBatchWriter(a.sink, sinkBudget, pull.Writer(), a.sleep, observer)

	return harvest.NewPullOrchestrator(runID, ledger, planner, projector, writer, a.recorder), nil
}

// RunOnce executes one pull under a new run id, bounded by PULL_DEADLINE.
func (a *App) RunOnce(ctx context.Context) (*harvest.RunSummary, error) {
	if a.Config.Pull.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Pull.Deadline)
		defer cancel()
	}

	runID := uuid.New().String()
	log := a.Logger.WithField("run_id", runID)

	orchestrator, err := a.NewRun(runID)
	if err != nil {
		return nil, err
	}

	log.Info("Pull started")
	started := time.Now()

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		if errors.Is(err, harvest.ErrMalformedSnapshot) {
			log.WithError(err).Error("Historical snapshot is malformed, nothing was written")
		}
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"posts_fetched": summary.PostsFetched,
		"rows_written":  summary.RowsWritten,
		"search_calls":  summary.SearchCalls,
		"new_numbers":   len(summary.NewNumbers),
		"duration":      time.Since(started).String(),
	}).Info("Pull completed")

	return summary, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
