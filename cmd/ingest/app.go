package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/mongo"
	"github.com/kbukum/ingestkit/observability"
	"github.com/kbukum/ingestkit/pipeline"
	"github.com/kbukum/ingestkit/web"
	"github.com/kbukum/ingestkit/workflow"
)

// app holds everything the commands share.
type app struct {
	cfg     *AppConfig
	log     *logger.Logger
	stores  stores
	fetcher *fetch.CachedFetcher
	client  *fetch.Client
	mongo   *mongo.Client
	metrics *observability.RunMetrics
	lines   *jsonLines

	shutdown []func(context.Context) error
}

func newApp(ctx context.Context, cfg *AppConfig, out io.Writer) (*app, error) {
	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, stores: st, lines: &jsonLines{enc: json.NewEncoder(out)}}
	a.shutdown = append(a.shutdown, func(context.Context) error { return st.Close() })

	a.client = fetch.NewClient(cfg.Fetch, fetch.WithLogger(log.WithComponent("fetch")))
	a.fetcher = fetch.Cached(a.client, st.Cache(), cfg.Fetch.CacheTTL).WithLogger(log.WithComponent("fetch"))
	return a, nil
}

// startObservability wires OTLP exporters when endpoints are configured.
func (a *app) startObservability(ctx context.Context) error {
	if a.cfg.Tracing.Endpoint != "" {
		tp, err := observability.InitTracer(ctx, a.cfg.Tracing)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, tp.Shutdown)
	}
	if a.cfg.Metrics.Endpoint != "" {
		mp, err := observability.InitMeter(ctx, a.cfg.Metrics)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, mp.Shutdown)
		metrics, err := observability.NewRunMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		a.metrics = metrics
	}
	return nil
}

func (a *app) connectMongo(ctx context.Context) error {
	if !a.cfg.Mongo.Enabled {
		return nil
	}
	client, err := mongo.Connect(ctx, a.cfg.Mongo, a.log.WithComponent("mongo"))
	if err != nil {
		return err
	}
	a.mongo = client
	a.shutdown = append(a.shutdown, func(context.Context) error { return client.Close() })
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			a.log.Warn("shutdown failed", logger.Fields(logger.FieldError, err))
		}
	}
}

func workflowName(src web.Config) string { return "web:" + src.Source }

func (a *app) linkStore(src web.Config) dedup.Store { return a.stores.Dedup(src.Source + "/links") }
func (a *app) articleStore(src web.Config) dedup.Store { return a.stores.Dedup(src.Source + "/articles") }
func (a *app) cursorStore(src web.Config) cursor.Store { return a.stores.Cursor(workflowName(src)) }

// stage builds Page → Article for one source:
// robots → links → robots → guard(link, article) → dedup(article).
// A link is recorded as seen only once its article extraction finished.
func (a *app) stage(src web.Config) (pipeline.Stage[web.Page, web.Article], error) {
	pages := pipeline.Identity[web.Page]()
	links := pipeline.New[web.Link]()
	if src.RespectRobots {
		robots := web.NewRobots(a.fetcher, src.UserAgent)
		pages = web.RobotsFilter[web.Page](robots)
		links = links.Then(web.RobotsFilter[web.Link](robots))
	}
	log := a.log.WithComponent("dedup")

	extractor, err := web.NewLinkExtractor(a.fetcher, src)
	if err != nil {
		return nil, err
	}
	articles := pipeline.New[web.Article](
		dedup.NewStage(a.articleStore(src), web.ArticleKey, dedup.WithName(src.Source+"/articles"), dedup.WithLogger(log)),
	)

	found := pipeline.Compose[web.Page, web.Page, web.Link](pages, extractor)
	fresh := pipeline.Compose[web.Page, web.Link, web.Link](found, links)
	guarded := dedup.NewGuard[web.Link, web.Article](a.linkStore(src), web.LinkKey, web.NewArticleExtractor(a.fetcher, src),
		dedup.WithName(src.Source+"/links"), dedup.WithLogger(log))
	extracted := pipeline.Compose[web.Page, web.Link, web.Article](fresh, guarded)
	return pipeline.Compose[web.Page, web.Article, web.Article](extracted, articles), nil
}

func (a *app) consumer() workflow.Consumer[web.Article] {
	if a.mongo != nil {
		return mongo.NewSink(a.mongo.Documents(), func(art web.Article) string { return art.NormalizedURL },
			mongo.WithLogger(a.log.WithComponent("mongo")))
	}
	return a.lines
}

// jobs builds one cursor-advancing job per source.
func (a *app) jobs(filter string, limit int) ([]workflow.Job, error) {
	jobs := make([]workflow.Job, 0, len(a.cfg.Sources))
	for _, src := range a.cfg.Sources {
		stage, err := a.stage(src)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Source, err)
		}
		opts := []workflow.Option{workflow.WithLogger(a.log.WithComponent("workflow"))}
		if a.metrics != nil {
			opts = append(opts, workflow.WithMetrics(a.metrics))
		}
		exec := workflow.New[web.Page, web.Article](workflowName(src), web.NewSeedProducer(src), stage, a.consumer(), opts...)
		store := a.cursorStore(src)
		log := a.log.WithComponent("workflow").WithFields(logger.Fields(logger.FieldWorkflow, exec.Name()))
		hooks := workflow.Hooks[web.Page]{
			OnError: func(ctx context.Context, err error, page web.Page) {
				log.WithContext(ctx).Warn("page failed", logger.Fields(logger.FieldURL, page.URL, logger.FieldError, err))
			},
		}

		jobs = append(jobs, workflow.Job{
			Name: exec.Name(),
			Run: func(ctx context.Context) (workflow.Stats, error) {
				var stats workflow.Stats
				err := cursor.Advance(ctx, store, time.Now, func(ctx context.Context, since *time.Time) error {
					var err error
					stats, err = exec.Execute(ctx, workflow.ProduceConfig{Filter: filter, Since: since, Limit: limit}, hooks)
					return err
				})
				return stats, err
			},
		})
	}
	return jobs, nil
}

// jsonLines writes each article as one JSON object per line. One value is
// shared by all sources.
type jsonLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (j *jsonLines) OnStart(context.Context) error { return nil }

func (j *jsonLines) Consume(_ context.Context, a web.Article) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(a)
}

func (j *jsonLines) OnComplete(context.Context) error { return nil }
