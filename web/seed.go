package web

import (
	"context"
	"strings"

	"github.com/kbukum/ingestkit/pipeline"
	"github.com/kbukum/ingestkit/workflow"
)

// SeedProducer yields the configured seed pages. ProduceConfig.Filter keeps
// only seeds containing it; Since is ignored because seeds are revisited on
// every run.
type SeedProducer struct {
	Source string
	Seeds  []string
}

var _ workflow.Producer[Page] = SeedProducer{}

// NewSeedProducer creates a SeedProducer from cfg.
func NewSeedProducer(cfg Config) SeedProducer {
	return SeedProducer{Source: cfg.Source, Seeds: cfg.Seeds}
}

// Produce returns the matching seeds in configuration order.
func (p SeedProducer) Produce(_ context.Context, cfg workflow.ProduceConfig) (pipeline.Iterator[Page], error) {
	pages := make([]Page, 0, len(p.Seeds))
	for _, seed := range p.Seeds {
		if cfg.Filter != "" && !strings.Contains(seed, cfg.Filter) {
			continue
		}
		pages = append(pages, Page{URL: seed, Source: p.Source})
		if cfg.Limit > 0 && len(pages) == cfg.Limit {
			break
		}
	}
	return pipeline.Of(pages...), nil
}
