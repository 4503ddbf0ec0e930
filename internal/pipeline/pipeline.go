// Package pipeline runs a lead search: it finds places in an area, then for
// each place searches for contact signals, optionally resolves them with a
// language model, and emits one lead record per place as it goes.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/contact"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/progress"
	"github.com/sells-group/lead-finder/internal/resilience"
	"github.com/sells-group/lead-finder/internal/resolver"
)

// persistTimeout bounds each store write so a slow database cannot stall the
// per-place loop.
const persistTimeout = 5 * time.Second

// PlaceFinder searches for businesses near a point.
type PlaceFinder interface {
	FindPlaces(ctx context.Context, keywords string, center model.LatLng, radius float64, limit int) ([]model.Place, error)
}

// Extractor pulls contact signals out of search hits.
type Extractor interface {
	Extract(hits []model.RawSearchHit, businessName string) model.ExtractedSignals
}

// Resolver picks the best contact out of free text.
type Resolver interface {
	Resolve(ctx context.Context, rawText string, targetTitles []string, companyName string) (*resolver.Resolution, error)
}

// Recorder persists leads and audit log entries.
type Recorder interface {
	SaveLead(ctx context.Context, lead *model.StoredLead) error
	SaveLog(ctx context.Context, entry *model.SearchLog) error
}

// Verifier is implemented by sources that can check their credentials.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Deps are the collaborators of a LeadPipeline. Premium, Resolver, and
// Store are optional.
type Deps struct {
	Places    PlaceFinder
	Premium   contact.Source
	Basic     contact.Source
	Extractor Extractor
	Resolver  Resolver
	Store     Recorder
	Locale    *contact.Locale
}

// Options tune the per-place loop.
type Options struct {
	// PlaceDelay is the pause between two places.
	PlaceDelay time.Duration
	// PlaceTimeout bounds one place's processing; zero disables it.
	PlaceTimeout time.Duration
	// MinResolveChars is the raw text length the resolver needs to run.
	MinResolveChars int
	// PersonFollowup searches for a found name when no email turned up.
	PersonFollowup bool
	// RegistryLookup adds business registry hits for company searches.
	RegistryLookup bool
	Messages       Messages
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		PlaceDelay:      2 * time.Second,
		MinResolveChars: 50,
		PersonFollowup:  true,
		RegistryLookup:  true,
		Messages:        ThaiMessages(),
	}
}

// LeadPipeline orchestrates lead searches. It is safe to share between
// concurrent runs.
type LeadPipeline struct {
	deps Deps
	opts Options

	// premiumErr is the result of the credential probe run at construction.
	premiumErr error
}

// New builds a pipeline. When the premium source can verify itself, its key
// is probed once here; a failed probe is logged but premium is still tried
// per place.
func New(ctx context.Context, deps Deps, opts Options) (*LeadPipeline, error) {
	if deps.Places == nil {
		return nil, eris.New("pipeline: places finder is required")
	}
	if deps.Basic == nil {
		return nil, eris.New("pipeline: basic source is required")
	}
	if deps.Extractor == nil {
		return nil, eris.New("pipeline: extractor is required")
	}
	if deps.Locale == nil {
		deps.Locale = contact.Thai()
	}
	if opts.Messages == (Messages{}) {
		opts.Messages = ThaiMessages()
	}

	p := &LeadPipeline{deps: deps, opts: opts}
	if v, ok := deps.Premium.(Verifier); ok {
		if err := v.Verify(ctx); err != nil {
			p.premiumErr = err
			zap.L().Warn("pipeline: premium key did not verify, will still try it per place",
				zap.String("source", deps.Premium.Name()),
				zap.Error(err),
			)
		} else {
			zap.L().Info("pipeline: premium key verified", zap.String("source", deps.Premium.Name()))
		}
	}
	return p, nil
}

// Messages returns the progress texts in use.
func (p *LeadPipeline) Messages() Messages { return p.opts.Messages }

// PremiumEnabled reports whether a premium source is configured.
func (p *LeadPipeline) PremiumEnabled() bool { return p.deps.Premium != nil }

// tally counts outcomes for the final audit entry.
type tally struct {
	premium int
	basic   int
	errored int
	emails  int
}

// Execute runs the search described by run, emitting progress on sink, and
// returns the emitted records in order. A places failure ends the run early
// with a status event and is returned as the error; per-place failures become
// error records and the loop goes on.
func (p *LeadPipeline) Execute(ctx context.Context, run *Run, sink progress.Sink) ([]model.LeadRecord, error) {
	if sink == nil {
		sink = progress.Discard
	}
	req := run.Request
	msgs := p.opts.Messages
	log := zap.L().With(zap.String("search_id", run.ID), zap.String("keywords", req.Keywords))
	emit := func(ev model.Event) {
		ev.SearchID = run.ID
		sink.Emit(ev)
	}

	isCompany := p.deps.Locale.IsCompanySearch(req.Keywords)
	log.Info("pipeline: starting search",
		zap.Stringer("location", req.Location),
		zap.Float64("radius_m", req.RadiusMeters),
		zap.Int("limit", req.ResultLimit),
		zap.Bool("company_search", isCompany),
		zap.Bool("premium", p.PremiumEnabled()),
	)
	p.audit(ctx, run, "", model.LogInfo, "search started", map[string]any{
		"request":        req,
		"company_search": isCompany,
		"premium":        p.PremiumEnabled(),
		"premium_probe":  errString(p.premiumErr),
	})

	if run.Stopped() {
		emit(model.StoppedEvent(msgs.stopped(0)))
		p.audit(ctx, run, "", model.LogWarning, "search stopped before start", nil)
		return nil, nil
	}

	found, err := p.deps.Places.FindPlaces(ctx, req.Keywords, req.Location, req.RadiusMeters, req.ResultLimit)
	if err != nil {
		log.Error("pipeline: places search failed", zap.Error(err))
		emit(model.StatusEvent(msgs.placesFailure(err)))
		p.audit(ctx, run, "", model.LogError, "places search failed", map[string]any{"error": err.Error()})
		return nil, eris.Wrap(err, "pipeline: find places")
	}
	if len(found) == 0 {
		log.Info("pipeline: no places found")
		emit(model.StatusEvent(msgs.NoPlaces))
		p.audit(ctx, run, "", model.LogInfo, "no places found", nil)
		return nil, nil
	}

	names := make([]string, len(found))
	for i, pl := range found {
		names[i] = pl.Name
	}
	emit(model.StatusEvent(msgs.placesFound(len(found))))
	p.audit(ctx, run, "", model.LogInfo, fmt.Sprintf("found %d places", len(found)), map[string]any{"places": names})

	var counts tally
	for i, place := range found {
		if run.Stopped() || ctx.Err() != nil {
			break
		}
		emit(model.StatusEvent(msgs.processing(place.Name, i+1, len(found))))

		lead, o, perr := p.processPlace(ctx, run, place, isCompany)
		if ctx.Err() != nil {
			// The whole run was canceled; a record for this place would be
			// misleading.
			break
		}
		if perr != nil {
			log.Warn("pipeline: place failed", zap.String("place", place.Name), zap.Error(perr))
			p.audit(ctx, run, place.Name, model.LogError, "place failed", map[string]any{"error": perr.Error()})
			lead = model.ErrorLead(place.Name)
			counts.errored++
		} else {
			if o.premium() {
				counts.premium++
			} else {
				counts.basic++
			}
			if lead.HasEmail() {
				counts.emails++
			}
		}

		run.records = append(run.records, lead)
		emit(model.ResultEvent(lead))
		p.persist(ctx, run, lead, o.premium())

		if i < len(found)-1 && !run.Stopped() {
			if err := resilience.Sleep(ctx, p.opts.PlaceDelay); err != nil {
				break
			}
		}
	}

	records := run.Records()
	summary := map[string]any{
		"results":       len(records),
		"premium":       counts.premium,
		"basic":         counts.basic,
		"errors":        counts.errored,
		"emails_found":  counts.emails,
		"places_total":  len(found),
		"stopped":       run.Stopped(),
		"context_error": errString(ctx.Err()),
	}
	switch {
	case run.Stopped():
		log.Info("pipeline: search stopped", zap.Int("results", len(records)))
		emit(model.StoppedEvent(msgs.stopped(len(records))))
		p.audit(ctx, run, "", model.LogWarning, "search stopped", summary)
	case ctx.Err() != nil:
		log.Info("pipeline: search canceled", zap.Int("results", len(records)), zap.Error(ctx.Err()))
		p.audit(ctx, run, "", model.LogWarning, "search canceled", summary)
		emit(model.ErrorEvent(msgs.canceled(len(records))))
		return records, ctx.Err()
	default:
		log.Info("pipeline: search complete", zap.Int("results", len(records)), zap.Int("errors", counts.errored))
		emit(model.StatusEvent(msgs.completed(len(records))))
		p.audit(ctx, run, "", model.LogInfo, "search complete", summary)
	}
	return records, nil
}

// processPlace produces the record for one place. Any failure, including a
// panic or an exceeded place timeout, is returned as an error.
func (p *LeadPipeline) processPlace(ctx context.Context, run *Run, place model.Place, isCompany bool) (lead model.LeadRecord, o searchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic processing %q: %v", place.Name, r)
		}
	}()

	if p.opts.PlaceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.PlaceTimeout)
		defer cancel()
	}
	log := zap.L().With(zap.String("search_id", run.ID), zap.String("place", place.Name))

	o, err = p.search(ctx, run, place.Name, isCompany)
	if err != nil {
		return lead, o, err
	}
	sig := p.deps.Extractor.Extract(o.hits, place.Name)

	if o.premium() && p.opts.PersonFollowup && len(sig.Names) > 0 && len(sig.Emails) == 0 {
		extra, ferr := p.deps.Premium.SearchForPerson(ctx, sig.Names[0], place.Name)
		if ferr != nil {
			log.Debug("pipeline: person follow-up failed", zap.String("person", sig.Names[0]), zap.Error(ferr))
		} else if len(extra) > 0 {
			o.hits = contact.Merge(o.hits, extra)
			sig = p.deps.Extractor.Extract(o.hits, place.Name)
		}
	}

	res := p.resolve(ctx, run, place.Name, sig)
	if err := ctx.Err(); err != nil {
		return lead, o, eris.Wrapf(err, "pipeline: %s", p.opts.Messages.PlaceTimeout)
	}

	lead = mergeLead(place.Name, o, sig, res, p.deps.Locale.DefaultTitle)
	log.Debug("pipeline: place processed",
		zap.String("phase", lead.SearchPhase),
		zap.Int("hits", len(o.hits)),
		zap.Int("emails", len(sig.Emails)),
		zap.Int("phones", len(sig.Phones)),
	)
	return lead, o, nil
}

// search runs the source stage: premium first when configured, falling back
// to basic on any premium failure.
func (p *LeadPipeline) search(ctx context.Context, run *Run, name string, isCompany bool) (searchOutcome, error) {
	if p.deps.Premium != nil {
		hits, err := p.deps.Premium.SearchForBusiness(ctx, name, contact.IntentContact)
		if err == nil {
			o := searchOutcome{provider: p.deps.Premium.Name(), hits: hits}
			if isCompany && p.opts.RegistryLookup {
				reg, rerr := p.deps.Premium.SearchForDirectorsViaRegistry(ctx, name)
				if rerr != nil {
					zap.L().Debug("pipeline: registry lookup failed", zap.String("place", name), zap.Error(rerr))
				}
				o.hits = contact.Merge(o.hits, reg)
			}
			return o, nil
		}
		zap.L().Warn("pipeline: premium search failed, falling back to basic",
			zap.String("search_id", run.ID),
			zap.String("place", name),
			zap.Error(err),
		)
		p.audit(ctx, run, name, model.LogWarning, "premium search failed, using basic", map[string]any{"error": err.Error()})
		return p.searchBasic(ctx, name, err)
	}
	return p.searchBasic(ctx, name, nil)
}

func (p *LeadPipeline) searchBasic(ctx context.Context, name string, fallback error) (searchOutcome, error) {
	o := searchOutcome{provider: p.deps.Basic.Name(), fallback: fallback}
	hits, err := p.deps.Basic.SearchForBusiness(ctx, name, contact.IntentContact)
	if err != nil {
		return o, eris.Wrapf(err, "pipeline: basic search for %q", name)
	}
	o.hits = hits
	return o, nil
}

// resolve asks the resolver when one is configured and the text is long
// enough. A resolver failure is not a place failure: nil is returned and the
// extracted signals are used directly.
func (p *LeadPipeline) resolve(ctx context.Context, run *Run, name string, sig model.ExtractedSignals) *resolver.Resolution {
	if p.deps.Resolver == nil || len([]rune(sig.RawText)) <= p.opts.MinResolveChars {
		return nil
	}
	res, err := p.deps.Resolver.Resolve(ctx, sig.RawText, run.Request.TargetTitles, name)
	if err != nil {
		zap.L().Warn("pipeline: resolver failed, using extracted signals",
			zap.String("search_id", run.ID),
			zap.String("place", name),
			zap.Error(err),
		)
		return nil
	}
	return res
}

// persist stores a record. Failures are logged only.
func (p *LeadPipeline) persist(ctx context.Context, run *Run, lead model.LeadRecord, premium bool) {
	if p.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	req := run.Request
	row := &model.StoredLead{
		SearchID:    run.ID,
		Lead:        lead,
		Keywords:    req.Keywords,
		Location:    req.Location.String(),
		RadiusKm:    req.RadiusKm(),
		PremiumUsed: premium,
	}
	if err := p.deps.Store.SaveLead(ctx, row); err != nil {
		zap.L().Warn("pipeline: failed to save lead",
			zap.String("search_id", run.ID),
			zap.String("company", lead.CompanyName),
			zap.Error(err),
		)
	}
}

// audit writes a milestone to the search log. Failures are logged only.
func (p *LeadPipeline) audit(ctx context.Context, run *Run, company string, level model.LogLevel, msg string, details map[string]any) {
	if p.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	entry := &model.SearchLog{
		SearchID:    run.ID,
		CompanyName: company,
		Level:       level,
		Message:     msg,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = raw
		}
	}
	if err := p.deps.Store.SaveLog(ctx, entry); err != nil {
		zap.L().Warn("pipeline: failed to save search log",
			zap.String("search_id", run.ID),
			zap.String("message", msg),
			zap.Error(err),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
