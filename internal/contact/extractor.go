package contact

import (
	"net/url"
	"strings"

	"github.com/sells-group/lead-finder/internal/model"
)

// Output caps.
const (
	MaxEmails   = 5
	MaxPhones   = 5
	MaxNames    = 8
	MaxWebsites = 3
)

// Extractor pulls candidate contact fields out of search hits using a
// locale rule set.
type Extractor struct {
	locale *Locale
}

// NewExtractor returns an extractor for locale.
func NewExtractor(locale *Locale) *Extractor {
	return &Extractor{locale: locale}
}

// Locale returns the rule set in use.
func (e *Extractor) Locale() *Locale { return e.locale }

// Extract runs every pattern pass over the hits. businessName is used to
// drop captured names that are really the business itself.
func (e *Extractor) Extract(hits []model.RawSearchHit, businessName string) model.ExtractedSignals {
	l := e.locale
	emails := newOrderedSet(emailKey)
	phones := newOrderedSet(phoneKey)
	names := newOrderedSet(nameKey)
	websites := newOrderedSet(URLKey)
	var facebook, line string

	business := normalize(businessName)
	var raw strings.Builder

	for _, h := range hits {
		text := normalize(h.Title + " " + h.Snippet)
		if raw.Len() > 0 {
			raw.WriteByte(' ')
		}
		raw.WriteString(text)

		for _, m := range l.Email.FindAllString(text, -1) {
			if !hasDomain(emailDomain(m), l.ExcludedEmailDomains) {
				emails.Add(m)
			}
		}

		for _, re := range l.Phones {
			for _, m := range re.FindAllString(text, -1) {
				phones.Add(m)
			}
		}

		for _, re := range l.Names {
			for _, sm := range re.FindAllStringSubmatch(text, -1) {
				if len(sm) < 2 {
					continue
				}
				if n := cleanName(sm[1]); acceptName(n, business) {
					names.Add(n)
				}
			}
		}

		if h.URL != "" {
			if isFacebook(h.URL) {
				if facebook == "" {
					facebook = h.URL
				}
			} else if e.acceptWebsite(h.URL) {
				websites.Add(h.URL)
			}
		}
		for _, m := range l.Website.FindAllString(text, -1) {
			m = strings.TrimRight(m, ".,;:)]}")
			if e.acceptWebsite(m) {
				websites.Add(m)
			}
		}

		if facebook == "" {
			facebook = l.Facebook.FindString(text)
		}
		if line == "" {
			line = firstHandle(l, text)
		}
	}

	return model.ExtractedSignals{
		Emails:   emails.Items(MaxEmails),
		Phones:   phones.Items(MaxPhones),
		Names:    names.Items(MaxNames),
		Websites: websites.Items(MaxWebsites),
		Facebook: facebook,
		Line:     line,
		RawText:  raw.String(),
	}
}

func (e *Extractor) acceptWebsite(u string) bool {
	if len(u) >= e.locale.MaxWebsiteLen {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Host)
	for _, d := range e.locale.ExcludedWebsiteDomains {
		if strings.Contains(host, d) {
			return false
		}
	}
	return true
}

// cleanName trims the whitespace the capture group tends to swallow.
func cleanName(s string) string {
	return normalize(s)
}

// acceptName rejects short captures and captures that overlap the business
// name in either direction.
func acceptName(name, business string) bool {
	if len([]rune(name)) < 2 {
		return false
	}
	if business == "" {
		return true
	}
	return !strings.Contains(name, business) && !strings.Contains(business, name)
}

// firstHandle returns the first @handle that is not the domain half of an
// email address.
func firstHandle(l *Locale, text string) string {
	for _, loc := range l.Line.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isHandleByte(text[loc[0]-1]) {
			continue
		}
		return text[loc[0]:loc[1]]
	}
	return ""
}

func isHandleByte(b byte) bool {
	return b == '.' || b == '_' || b == '-' || b == '%' || b == '+' ||
		(b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isFacebook(u string) bool {
	return strings.Contains(strings.ToLower(u), "facebook.com/")
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}

// hasDomain reports whether domain equals or is a subdomain of one of set.
func hasDomain(domain string, set []string) bool {
	for _, d := range set {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
