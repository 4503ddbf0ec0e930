package pipeline

import (
	"fmt"

	"github.com/sells-group/lead-finder/internal/contact"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resolver"
)

// Phase label stems. The hit count is appended in parentheses.
const (
	phasePremiumAI     = "premium API + AI resolver"
	phasePremiumDirect = "premium API direct"
	phaseBasicAI       = "basic fallback + AI resolver"
	phaseBasicDirect   = "basic fallback"
)

// searchOutcome is what the source stage produced for one place.
type searchOutcome struct {
	provider string
	hits     []model.RawSearchHit
	// fallback is why premium did not serve; nil when it did or when no
	// premium source is configured.
	fallback error
}

func (o searchOutcome) premium() bool { return o.provider == contact.PremiumName }

// phaseLabel names the path that produced a record.
func phaseLabel(o searchOutcome, resolved bool) string {
	stem := phaseBasicDirect
	switch {
	case o.premium() && resolved:
		stem = phasePremiumAI
	case o.premium():
		stem = phasePremiumDirect
	case resolved:
		stem = phaseBasicAI
	}
	return fmt.Sprintf("%s (%d sources)", stem, len(o.hits))
}

// mergeLead combines the resolver's answer with the extracted signals. A
// resolver field wins unless it is a sentinel; otherwise the first extracted
// candidate is used; otherwise the field stays a sentinel.
func mergeLead(company string, o searchOutcome, sig model.ExtractedSignals, res *resolver.Resolution, defaultTitle string) model.LeadRecord {
	var ai resolver.Resolution
	if res != nil {
		ai = *res
	}

	lead := model.LeadRecord{
		CompanyName: company,
		LeadName:    pick(ai.LeadName, model.NotAvailable, first(sig.Names)),
		Email:       pick(ai.Email, model.NoEmail, first(sig.Emails)),
		Phone:       pick(ai.Phone, model.NotAvailable, first(sig.Phones)),
		TargetURL:   targetURL(sig, o.hits),
		SearchPhase: phaseLabel(o, res != nil),
		SearchStep:  1,
	}

	lead.LeadTitle = model.NotAvailable
	switch {
	case present(ai.LeadTitle, model.NotAvailable):
		lead.LeadTitle = ai.LeadTitle
	case lead.LeadName != model.NotAvailable && defaultTitle != "":
		lead.LeadTitle = defaultTitle
	}
	return lead
}

func targetURL(sig model.ExtractedSignals, hits []model.RawSearchHit) string {
	if len(sig.Websites) > 0 {
		return sig.Websites[0]
	}
	for _, h := range hits {
		if h.URL != "" {
			return h.URL
		}
	}
	return model.NotAvailable
}

// pick returns v when it is a real value, else fallback when non-empty,
// else sentinel.
func pick(v, sentinel, fallback string) string {
	if present(v, sentinel) {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return sentinel
}

func present(v, sentinel string) bool { return v != "" && v != sentinel }

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
