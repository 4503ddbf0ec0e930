package contact

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Locale is the rule set that makes extraction and query building
// country-specific: phone formats, honorifics, excluded domains, and the
// wording of search queries.
type Locale struct {
	Code string

	Email    *regexp.Regexp
	Phones   []*regexp.Regexp
	Names    []*regexp.Regexp // group 1 captures the person name
	Website  *regexp.Regexp
	Facebook *regexp.Regexp
	Line     *regexp.Regexp

	ExcludedEmailDomains   []string
	ExcludedWebsiteDomains []string
	MaxWebsiteLen          int

	// CompanyWords mark a keyword search as targeting registered companies.
	CompanyWords []string
	// DefaultTitle labels a lead whose name was found but whose role was not.
	DefaultTitle string

	Queries QueryTemplates
}

// QueryTemplates hold search query shapes. Placeholders: {name} for the
// business, {person} for a person name.
type QueryTemplates struct {
	Contact   string   `yaml:"contact"`
	General   string   `yaml:"general"`
	Directors string   `yaml:"directors"`
	Person    []string `yaml:"person"`
	Registry  []string `yaml:"registry"`
}

var (
	emailPattern    = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	websitePattern  = `https?://[^\s<>"']+`
	facebookPattern = `(?:https?://)?(?:www\.)?facebook\.com/[a-zA-Z0-9.]+`
	linePattern     = `@[a-zA-Z0-9._-]+`
)

// Thai returns the built-in rule set for Thailand.
func Thai() *Locale {
	return &Locale{
		Code:  "th",
		Email: regexp.MustCompile(emailPattern),
		Phones: mustCompileAll(
			`\+66[2-9]\d{8}`,
			`0[2-9]\d{8}`,
			`0[6-9]\d{8}`,
			`0[2-9][-\s]\d{3}[-\s]\d{4}`,
			`0[6-9]\d[-\s]\d{3}[-\s]\d{4}`,
		),
		Names: mustCompileAll(
			`(?:คุณ|นางสาว|นาย|นาง|ดร\.?)\s*([ก-๏\s]{2,30})`,
			`(?:ผู้จัดการ|กรรมการ|เจ้าของ)[:\s]*(?:คุณ|นางสาว|นาย|นาง)?\s*([ก-๏\s]{2,30})`,
		),
		Website:  regexp.MustCompile(websitePattern),
		Facebook: regexp.MustCompile(facebookPattern),
		Line:     regexp.MustCompile(linePattern),

		ExcludedEmailDomains:   []string{"example.com", "test.com", "google.com", "facebook.com", "w3.org"},
		ExcludedWebsiteDomains: []string{"google.com", "bing.com", "facebook.com", "maps.google", "youtube.com"},
		MaxWebsiteLen:          200,

		CompanyWords: []string{
			"บริษัท", "company", "corp", "corporation", "จำกัด", "limited", "ltd",
			"ห้างหุ้นส่วน", "partnership", "องค์กร", "organization", "สำนักงาน", "office",
		},
		DefaultTitle: "ผู้ติดต่อ",

		Queries: QueryTemplates{
			Contact:   `"{name}" ติดต่อ email โทรศัพท์ เบอร์โทร contact phone`,
			General:   `"{name}" website official contact information`,
			Directors: `"{name}" กรรมการ ผู้บริหาร ผู้จัดการ directors management`,
			Person: []string{
				`"{person}" "{name}" contact email phone`,
				`"{person}" "{name}" ติดต่อ อีเมล โทรศัพท์`,
				`"{person}" "{name}" manager director`,
			},
			Registry: []string{
				`site:dbd.go.th "{name}"`,
				`site:datawarehouse.dbd.go.th "{name}"`,
				`"{name}" กรรมการ ผู้บริหาร site:dbd.go.th`,
				`"{name}" directors management site:dbd.go.th`,
			},
		},
	}
}

// LookupLocale returns a built-in locale by code.
func LookupLocale(code string) (*Locale, error) {
	switch strings.ToLower(code) {
	case "", "th":
		return Thai(), nil
	default:
		return nil, eris.Errorf("contact: unknown locale %q", code)
	}
}

// ExcludeEngines adds the host of each search endpoint to
// ExcludedWebsiteDomains so result pages never count as websites.
func (l *Locale) ExcludeEngines(endpoints ...string) {
	for _, e := range endpoints {
		u, err := url.Parse(e)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if !hasDomain(host, l.ExcludedWebsiteDomains) {
			l.ExcludedWebsiteDomains = append(l.ExcludedWebsiteDomains, host)
		}
	}
}

// IsCompanySearch reports whether keywords target registered companies
// rather than shops or venues.
func (l *Locale) IsCompanySearch(keywords string) bool {
	folded := cases.Fold().String(normalize(keywords))
	for _, w := range l.CompanyWords {
		if strings.Contains(folded, cases.Fold().String(w)) {
			return true
		}
	}
	return false
}

// BusinessQuery renders the single business-level query for intent.
func (l *Locale) BusinessQuery(name string, intent Intent) string {
	var tmpl string
	switch intent {
	case IntentContact:
		tmpl = l.Queries.Contact
	case IntentDirectors:
		tmpl = l.Queries.Directors
	default:
		tmpl = l.Queries.General
	}
	return render(tmpl, name, "")
}

// PersonQueries renders the person+business query variants.
func (l *Locale) PersonQueries(person, business string) []string {
	out := make([]string, len(l.Queries.Person))
	for i, t := range l.Queries.Person {
		out[i] = render(t, business, person)
	}
	return out
}

// RegistryQueries renders the business-registry query variants.
func (l *Locale) RegistryQueries(business string) []string {
	out := make([]string, len(l.Queries.Registry))
	for i, t := range l.Queries.Registry {
		out[i] = render(t, business, "")
	}
	return out
}

func render(tmpl, name, person string) string {
	return strings.NewReplacer("{name}", name, "{person}", person).Replace(tmpl)
}

// localeFile is the YAML shape of a locale override file. Empty fields keep
// the base locale's value.
type localeFile struct {
	Code                   string         `yaml:"code"`
	Phones                 []string       `yaml:"phone_patterns"`
	Names                  []string       `yaml:"name_patterns"`
	ExcludedEmailDomains   []string       `yaml:"excluded_email_domains"`
	ExcludedWebsiteDomains []string       `yaml:"excluded_website_domains"`
	CompanyWords           []string       `yaml:"company_words"`
	DefaultTitle           string         `yaml:"default_title"`
	Queries                QueryTemplates `yaml:"queries"`
}

// LoadLocaleFile reads a YAML override file on top of base.
func LoadLocaleFile(path string, base *Locale) (*Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: read locale file %s", path)
	}
	return ParseLocale(data, base)
}

// ParseLocale applies YAML overrides to a copy of base.
func ParseLocale(data []byte, base *Locale) (*Locale, error) {
	var f localeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "contact: parse locale")
	}

	l := *base
	if f.Code != "" {
		l.Code = f.Code
	}
	if len(f.Phones) > 0 {
		re, err := compileAll(f.Phones)
		if err != nil {
			return nil, eris.Wrap(err, "contact: phone_patterns")
		}
		l.Phones = re
	}
	if len(f.Names) > 0 {
		re, err := compileAll(f.Names)
		if err != nil {
			return nil, eris.Wrap(err, "contact: name_patterns")
		}
		for _, r := range re {
			if r.NumSubexp() < 1 {
				return nil, eris.Errorf("contact: name pattern %q needs a capture group", r.String())
			}
		}
		l.Names = re
	}
	if len(f.ExcludedEmailDomains) > 0 {
		l.ExcludedEmailDomains = f.ExcludedEmailDomains
	}
	if len(f.ExcludedWebsiteDomains) > 0 {
		l.ExcludedWebsiteDomains = f.ExcludedWebsiteDomains
	}
	if len(f.CompanyWords) > 0 {
		l.CompanyWords = f.CompanyWords
	}
	if f.DefaultTitle != "" {
		l.DefaultTitle = f.DefaultTitle
	}
	if f.Queries.Contact != "" {
		l.Queries.Contact = f.Queries.Contact
	}
	if f.Queries.General != "" {
		l.Queries.General = f.Queries.General
	}
	if f.Queries.Directors != "" {
		l.Queries.Directors = f.Queries.Directors
	}
	if len(f.Queries.Person) > 0 {
		l.Queries.Person = f.Queries.Person
	}
	if len(f.Queries.Registry) > 0 {
		l.Queries.Registry = f.Queries.Registry
	}
	return &l, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func mustCompileAll(patterns ...string) []*regexp.Regexp {
	re, err := compileAll(patterns)
	if err != nil {
		panic(err)
	}
	return re
}
