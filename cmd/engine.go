package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/agent"
	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/monitoring"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/internal/tools"
	"github.com/sells-group/enrich-cli/pkg/anthropic"
	"github.com/sells-group/enrich-cli/pkg/jina"
	"github.com/sells-group/enrich-cli/pkg/prospeo"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// errStoreUnreachable marks a configured-but-unreachable remote store.
// main maps it to exit code 2.
var errStoreUnreachable = eris.New("cmd: store unreachable")

// services bundles the reliability layer shared by every command.
type services struct {
	Cache     *cache.Cache
	Flight    *flight.Group
	Breakers  *resilience.BreakerRegistry
	Collector *monitoring.Collector
	Provider  *provider.Services
}

// buildServices wires cache, singleflight, and breakers from config.
// requireStore makes a configured-but-unreachable redis fatal; otherwise
// the cache silently degrades to memory-only.
func buildServices(ctx context.Context, c *config.Config, requireStore bool) (*services, error) {
	var remote cache.KVStore
	if c.Redis.URL != "" {
		store, err := cache.NewRedisStoreFromURL(c.Redis.URL)
		if err != nil {
			return nil, eris.Wrap(err, "cmd: redis config")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = store.Ping(pingCtx)
		cancel()
		switch {
		case err == nil:
			remote = store
		case requireStore:
			return nil, eris.Wrap(errStoreUnreachable, err.Error())
		default:
			zap.L().Warn("cmd: redis unreachable, running memory-only", zap.Error(err))
		}
	}

	kv := cache.New(c.CachePolicy(), remote)
	flights := flight.NewGroup()
	breakers := resilience.NewBreakerRegistry(c.BreakerPolicy())

	return &services{
		Cache:     kv,
		Flight:    flights,
		Breakers:  breakers,
		Collector: monitoring.NewCollector(kv, flights, breakers),
		Provider:  provider.NewServices(kv, flights, breakers),
	}, nil
}

// engine is the full enrichment stack behind the enrich and serve commands.
type engine struct {
	*services
	Registry *tools.Registry
	Executor *agent.Executor
}

// buildEngine wires provider clients, the tool catalog, and the executor.
func buildEngine(ctx context.Context, c *config.Config) (*engine, error) {
	if c.Serper.Key == "" {
		return nil, eris.New("cmd: serper api key not configured")
	}
	if c.Anthropic.Key == "" {
		return nil, eris.New("cmd: anthropic api key not configured")
	}

	svcs, err := buildServices(ctx, c, false)
	if err != nil {
		return nil, err
	}

	local := scrape.NewLocalScraper()
	scrapers := []scrape.Scraper{local}
	if c.Jina.Key != "" {
		scrapers = append(scrapers, scrape.NewJinaAdapter(
			jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL)),
		))
	}

	deps := &tools.Deps{
		Search:   provider.NewSearchAdapter(serper.NewClient(c.Serper.Key, serper.WithNumResults(c.Serper.NumResults))),
		LLM:      provider.NewStructuredExtractor(anthropic.NewClient(c.Anthropic.Key), c.Anthropic.Model),
		Fetch:    local,
		Chain:    scrape.NewChain(scrapers...),
		Services: svcs.Provider,
	}

	emailEnabled := c.Prospeo.Key != ""
	if emailEnabled {
		deps.Email = provider.NewEmailFinder(prospeo.NewClient(c.Prospeo.Key))
	} else {
		zap.L().Warn("cmd: prospeo api key not configured, disabling email lookup")
	}

	registry, err := tools.CatalogEnabled(deps, func(id string) bool {
		if !emailEnabled && id == "person.email_work" {
			return false
		}
		return c.Tools.Enabled(id)
	})
	if err != nil {
		return nil, err
	}

	return &engine{
		services: svcs,
		Registry: registry,
		Executor: agent.NewExecutor(registry, svcs.Provider),
	}, nil
}
