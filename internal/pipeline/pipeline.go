// Package pipeline runs the fetch, summarize, store, export cycle for a
// source.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reconly/reconly/core/logx"
	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/export"
	"github.com/reconly/reconly/internal/fetch"
	"github.com/reconly/reconly/internal/metrics"
	"github.com/reconly/reconly/internal/provider"
	"github.com/reconly/reconly/internal/registry"
	"github.com/reconly/reconly/internal/runstate"
	"github.com/reconly/reconly/internal/settings"
)

// Pipeline ties the registry, the settings resolver and the stores together.
type Pipeline struct {
	reg      *registry.Registry
	store    *digest.Store
	resolver *settings.Resolver
	runs     runstate.Store
	metrics  *metrics.Metrics
	broker   *Broker
	log      zerolog.Logger
}

// New wires a pipeline over shared infrastructure.
func New(reg *registry.Registry, store *digest.Store, resolver *settings.Resolver, runs runstate.Store, m *metrics.Metrics, broker *Broker) *Pipeline {
	return &Pipeline{reg: reg, store: store, resolver: resolver, runs: runs, metrics: m, broker: broker, log: logx.Component("pipeline")}
}

// Broker exposes the event broker for API subscribers.
func (p *Pipeline) Broker() *Broker { return p.broker }

// ComponentConfig resolves a component's schema into the flat config map its
// factory consumes, keyed by field key.
func (p *Pipeline) ComponentConfig(ctx context.Context, d registry.Descriptor) (map[string]any, error) {
	resolved, err := p.resolver.ResolveComponent(ctx, d)
	if err != nil {
		return nil, err
	}
	cfg := make(map[string]any, len(resolved))
	for _, r := range resolved {
		key := r.Key
		if i := strings.LastIndex(key, "."); i >= 0 {
			key = key[i+1:]
		}
		cfg[key] = r.Value
	}
	return cfg, nil
}

// FetcherFor picks the fetcher entry for a source: the explicitly assigned
// one if set, otherwise the first fetcher whose URL detection matches.
func (p *Pipeline) FetcherFor(src digest.Source) (*registry.Entry, error) {
	if src.Fetcher != "" {
		return p.reg.Get(registry.KindFetcher, src.Fetcher)
	}
	entry, ok := p.reg.Find(registry.KindFetcher, func(d registry.Descriptor) bool {
		return d.DetectURL != nil && d.DetectURL(src.URL)
	})
	if !ok {
		return nil, fmt.Errorf("no fetcher matches %s", src.URL)
	}
	return entry, nil
}

// activeProvider returns the first provider that is enabled and fully
// configured, constructed from its resolved configuration. ok is false when
// no provider qualifies; digests are then stored unsummarized.
func (p *Pipeline) activeProvider(ctx context.Context) (string, provider.Provider, bool, error) {
	for _, e := range p.reg.List(registry.KindProvider) {
		act, err := p.resolver.Activation(ctx, e.Descriptor)
		if err != nil {
			return "", nil, false, err
		}
		if !act.Enabled || !act.IsConfigured {
			continue
		}
		factory, ok := e.Factory.(provider.Factory)
		if !ok {
			continue
		}
		cfg, err := p.ComponentConfig(ctx, e.Descriptor)
		if err != nil {
			return "", nil, false, err
		}
		prov, err := factory(cfg)
		if err != nil {
			p.log.Warn().Err(err).Str("provider", e.Descriptor.Name).Msg("provider construction failed")
			continue
		}
		return e.Descriptor.Name, prov, true, nil
	}
	return "", nil, false, nil
}

type namedExporter struct {
	name string
	exp  export.Exporter
}

// directExporters builds every enabled exporter that supports direct export.
func (p *Pipeline) directExporters(ctx context.Context) ([]namedExporter, error) {
	var out []namedExporter
	for _, e := range p.reg.List(registry.KindExporter) {
		if !e.Descriptor.Capabilities.SupportsDirectExport {
			continue
		}
		act, err := p.resolver.Activation(ctx, e.Descriptor)
		if err != nil {
			return nil, err
		}
		if !act.Enabled || !act.IsConfigured {
			continue
		}
		factory, ok := e.Factory.(export.Factory)
		if !ok {
			continue
		}
		cfg, err := p.ComponentConfig(ctx, e.Descriptor)
		if err != nil {
			return nil, err
		}
		exp, err := factory(cfg)
		if err != nil {
			p.log.Warn().Err(err).Str("exporter", e.Descriptor.Name).Msg("exporter construction failed")
			continue
		}
		out = append(out, namedExporter{name: e.Descriptor.Name, exp: exp})
	}
	return out, nil
}

// RunSource executes one fetch cycle for a source and returns the resulting
// run state. Per-item failures are logged and skipped; only failures that
// prevent the run itself mark the run as failed.
func (p *Pipeline) RunSource(ctx context.Context, sourceID int64) (runstate.RunState, error) {
	src, err := p.store.GetSource(ctx, sourceID)
	if err != nil {
		return runstate.RunState{}, err
	}

	st := runstate.RunState{
		SourceID:  fmt.Sprintf("%d", src.ID),
		Status:    runstate.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_ = p.runs.Set(ctx, st)
	p.broker.Publish(Event{Type: EventRunStarted, SourceID: src.ID})

	st, runErr := p.runSource(ctx, *src, st)
	st.EndedAt = time.Now().UTC()
	if runErr != nil {
		st.Status = runstate.StatusError
		st.LastError = runErr.Error()
	} else {
		st.Status = runstate.StatusOK
	}
	_ = p.runs.Set(ctx, st)
	p.broker.Publish(Event{Type: EventRunFinished, SourceID: src.ID, Message: st.Status})
	return st, runErr
}

func (p *Pipeline) runSource(ctx context.Context, src digest.Source, st runstate.RunState) (runstate.RunState, error) {
	log := p.log.With().Int64("source", src.ID).Str("url", src.URL).Logger()

	entry, err := p.FetcherFor(src)
	if err != nil {
		return st, err
	}
	fetcherName := entry.Descriptor.Name
	factory, ok := entry.Factory.(fetch.Factory)
	if !ok {
		return st, fmt.Errorf("fetcher %s is unavailable", fetcherName)
	}
	cfg, err := p.ComponentConfig(ctx, entry.Descriptor)
	if err != nil {
		return st, err
	}
	fetcher, err := factory(cfg)
	if err != nil {
		p.metrics.FetchRuns.WithLabelValues(fetcherName, "error").Inc()
		return st, fmt.Errorf("build fetcher %s: %w", fetcherName, err)
	}

	items, err := fetcher.Fetch(ctx, src.URL, fetch.Options{})
	if err != nil {
		p.metrics.FetchRuns.WithLabelValues(fetcherName, "error").Inc()
		return st, fmt.Errorf("fetch: %w", err)
	}
	p.metrics.FetchRuns.WithLabelValues(fetcherName, "ok").Inc()
	p.metrics.ItemsFetched.WithLabelValues(fetcherName).Add(float64(len(items)))
	st.Items = len(items)
	log.Info().Int("items", len(items)).Str("fetcher", fetcherName).Msg("fetched source")

	provName, prov, hasProvider, err := p.activeProvider(ctx)
	if err != nil {
		return st, err
	}
	exporters, err := p.directExporters(ctx)
	if err != nil {
		return st, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		d := digest.Digest{
			ID:        uuid.NewString(),
			SourceID:  src.ID,
			Title:     item.Title,
			URL:       item.URL,
			Author:    item.Author,
			Content:   item.Content,
			FetchedAt: item.Published,
		}
		if d.FetchedAt.IsZero() {
			d.FetchedAt = time.Now().UTC()
		}
		inserted, err := p.store.InsertDigest(ctx, d)
		if err != nil {
			log.Warn().Err(err).Str("item", item.URL).Msg("store digest failed")
			continue
		}
		if !inserted {
			continue
		}
		st.Stored++
		p.metrics.DigestsStored.Inc()

		if hasProvider {
			start := time.Now()
			sum, err := prov.Summarize(ctx, provider.Request{Title: item.Title, URL: item.URL, Content: item.Content})
			p.metrics.SummarizeSeconds.WithLabelValues(provName).Observe(time.Since(start).Seconds())
			if err != nil {
				log.Warn().Err(err).Str("provider", provName).Str("item", item.URL).Msg("summarize failed")
			} else {
				d.Summary = sum.Text
				d.Tags = sum.Tags
				if err := p.store.SetSummary(ctx, d.ID, sum.Text, sum.Tags); err != nil {
					log.Warn().Err(err).Str("digest", d.ID).Msg("store summary failed")
				}
			}
		}
		p.broker.Publish(Event{Type: EventDigestAdded, SourceID: src.ID, DigestID: d.ID, Message: d.Title})

		for _, ne := range exporters {
			if err := ne.exp.Export(ctx, d); err != nil {
				p.metrics.Exports.WithLabelValues(ne.name, "error").Inc()
				log.Warn().Err(err).Str("exporter", ne.name).Str("digest", d.ID).Msg("direct export failed")
				continue
			}
			p.metrics.Exports.WithLabelValues(ne.name, "ok").Inc()
			if err := p.store.MarkExported(ctx, d.ID); err != nil {
				log.Warn().Err(err).Str("digest", d.ID).Msg("mark exported failed")
			}
			p.broker.Publish(Event{Type: EventExportDone, SourceID: src.ID, DigestID: d.ID, Message: ne.name})
		}
	}
	return st, nil
}

// ExportDigest runs one stored digest through a specific exporter on demand.
func (p *Pipeline) ExportDigest(ctx context.Context, digestID, exporterName string) error {
	d, err := p.store.GetDigest(ctx, digestID)
	if err != nil {
		return err
	}
	entry, err := p.reg.Get(registry.KindExporter, exporterName)
	if err != nil {
		return err
	}
	factory, ok := entry.Factory.(export.Factory)
	if !ok {
		return fmt.Errorf("exporter %s is unavailable", exporterName)
	}
	cfg, err := p.ComponentConfig(ctx, entry.Descriptor)
	if err != nil {
		return err
	}
	exp, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("build exporter %s: %w", exporterName, err)
	}
	if err := exp.Export(ctx, *d); err != nil {
		p.metrics.Exports.WithLabelValues(exporterName, "error").Inc()
		return err
	}
	p.metrics.Exports.WithLabelValues(exporterName, "ok").Inc()
	if err := p.store.MarkExported(ctx, d.ID); err != nil {
		return err
	}
	p.broker.Publish(Event{Type: EventExportDone, DigestID: d.ID, Message: exporterName})
	return nil
}
