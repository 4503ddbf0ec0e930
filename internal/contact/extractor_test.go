package contact

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

func hit(title, snippet, url string) model.RawSearchHit {
	return model.RawSearchHit{Title: title, Snippet: snippet, URL: url, Provider: "test"}
}

func TestExtract_Basic(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("Cafe A - ติดต่อเรา", "อีเมล info@cafea.co.th โทร 081-234-5678 คุณสมชาย ใจดี 2024", "https://cafea.co.th/contact"),
		hit("Cafe A Facebook", "ไลน์ @cafea_official", "https://www.facebook.com/cafea"),
	}

	sig := e.Extract(hits, "Cafe A")

	assert.Equal(t, []string{"info@cafea.co.th"}, sig.Emails)
	assert.Equal(t, []string{"081-234-5678"}, sig.Phones)
	assert.Equal(t, []string{"สมชาย ใจดี"}, sig.Names)
	assert.Equal(t, []string{"https://cafea.co.th/contact"}, sig.Websites)
	assert.Equal(t, "https://www.facebook.com/cafea", sig.Facebook)
	assert.Equal(t, "@cafea_official", sig.Line)
	assert.Contains(t, sig.RawText, "info@cafea.co.th")
	assert.Contains(t, sig.RawText, "@cafea_official")
}

func TestExtract_Empty(t *testing.T) {
	sig := NewExtractor(Thai()).Extract(nil, "Cafe A")
	assert.Empty(t, sig.Emails)
	assert.Empty(t, sig.Phones)
	assert.Empty(t, sig.Names)
	assert.Empty(t, sig.Websites)
	assert.Empty(t, sig.Facebook)
	assert.Empty(t, sig.Line)
	assert.Empty(t, sig.RawText)
}

func TestExtract_ExcludedEmailDomains(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "noreply@google.com user@mail.facebook.com demo@example.com sales@shop.co.th", ""),
	}
	sig := e.Extract(hits, "")
	assert.Equal(t, []string{"sales@shop.co.th"}, sig.Emails)
}

func TestExtract_EmailDedupCaseInsensitive(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "Info@Shop.co.th", ""),
		hit("", "info@shop.co.th", ""),
	}
	sig := e.Extract(hits, "")
	assert.Equal(t, []string{"Info@Shop.co.th"}, sig.Emails)
}

func TestExtract_PhoneDedupAcrossFormats(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "โทร 0812345678", ""),
		hit("", "mobile 081-234-5678", ""),
		hit("", "call +66812345678", ""),
		hit("", "office 02-123-4567", ""),
	}
	sig := e.Extract(hits, "")
	assert.Equal(t, []string{"0812345678", "02-123-4567"}, sig.Phones)
}

func TestExtract_Caps(t *testing.T) {
	e := NewExtractor(Thai())
	var hits []model.RawSearchHit
	for i := 0; i < 10; i++ {
		hits = append(hits, hit("",
			fmt.Sprintf("user%d@shop%d.co.th 08123456%02d", i, i, i),
			fmt.Sprintf("https://shop%d.co.th/", i),
		))
	}
	sig := e.Extract(hits, "")
	assert.Len(t, sig.Emails, MaxEmails)
	assert.Len(t, sig.Phones, MaxPhones)
	assert.Len(t, sig.Websites, MaxWebsites)
	assert.Equal(t, "user0@shop0.co.th", sig.Emails[0])
}

func TestExtract_NamesRejectBusinessOverlap(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "คุณร้านกาแฟดี 1234", ""),
		hit("", "ผู้จัดการ: นางสาวมาลี สวยงาม 5678", ""),
		hit("", "คุณก 99", ""),
	}
	sig := e.Extract(hits, "ร้านกาแฟดี")
	assert.Equal(t, []string{"มาลี สวยงาม"}, sig.Names)
}

func TestExtract_NameHonorificOrder(t *testing.T) {
	e := NewExtractor(Thai())
	sig := e.Extract([]model.RawSearchHit{hit("", "ติดต่อ นางสาววิไล ดีมาก 02", "")}, "")
	require.NotEmpty(t, sig.Names)
	assert.Equal(t, "วิไล ดีมาก", sig.Names[0])
}

func TestExtract_Websites(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "see https://www.google.com/maps/place/x and https://shop.co.th/about.", "https://maps.google.com/?cid=1"),
		hit("", "", "https://www.youtube.com/watch?v=1"),
		hit("", "", "https://shop.co.th/about/"),
		hit("", "", "not a url"),
	}
	sig := e.Extract(hits, "")
	assert.Equal(t, []string{"https://shop.co.th/about"}, sig.Websites)
}

func TestExtract_SearchEnginePagesAreNotWebsites(t *testing.T) {
	e := NewExtractor(Thai())
	hits := []model.RawSearchHit{
		hit("", "", "https://www.bing.com/search?q=%22shop%22"),
		hit("", "via https://www.bing.com/ck/a?u=a1aHR0cHM6Ly9zaG9w", "https://www.google.com/search?q=shop"),
	}
	sig := e.Extract(hits, "")
	assert.Empty(t, sig.Websites)
}

func TestExtract_ConfiguredEngineExcluded(t *testing.T) {
	l := Thai()
	l.ExcludeEngines("https://search.example.net/html")
	e := NewExtractor(l)

	sig := e.Extract([]model.RawSearchHit{
		hit("", "", "https://search.example.net/html?q=shop"),
		hit("", "", "https://shop.co.th"),
	}, "")
	assert.Equal(t, []string{"https://shop.co.th"}, sig.Websites)
}

func TestExtract_FacebookFromText(t *testing.T) {
	e := NewExtractor(Thai())
	sig := e.Extract([]model.RawSearchHit{hit("", "เพจ facebook.com/cafe.a ครับ", "https://cafe.co.th")}, "")
	assert.Equal(t, "facebook.com/cafe.a", sig.Facebook)
	assert.Equal(t, []string{"https://cafe.co.th"}, sig.Websites)
}

func TestExtract_LineIgnoresEmailDomain(t *testing.T) {
	e := NewExtractor(Thai())
	sig := e.Extract([]model.RawSearchHit{hit("", "info@shop.co.th", "")}, "")
	assert.Empty(t, sig.Line)

	sig = e.Extract([]model.RawSearchHit{hit("", "info@shop.co.th Line: @shopline", "")}, "")
	assert.Equal(t, "@shopline", sig.Line)
}

func TestURLKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://WWW.Shop.co.th/About/", "https://shop.co.th/About"},
		{"https://shop.co.th/#top", "https://shop.co.th"},
		{"  ", ""},
		{"Not-A-URL/", "not-a-url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, URLKey(tt.in))
		})
	}
}
