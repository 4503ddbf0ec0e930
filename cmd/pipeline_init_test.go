//go:build !integration

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/internal/model"
)

func TestInitResolver(t *testing.T) {
	c := &config.Config{}
	c.Resolver.Provider = "none"
	assert.Nil(t, initResolver(c))

	c.Resolver.Provider = "anthropic"
	c.Anthropic.Key = "sk-ant-test"
	c.Anthropic.Model = "claude-haiku-4-5-20251001"
	assert.NotNil(t, initResolver(c))

	c.Resolver.Provider = "openai"
	c.OpenAI.Key = "sk-test"
	c.OpenAI.Model = "gpt-4o-mini"
	assert.NotNil(t, initResolver(c))
}

func TestInitLocale(t *testing.T) {
	c := &config.Config{}
	c.Contact.Locale = "th"
	loc, err := initLocale(c)
	require.NoError(t, err)
	assert.Equal(t, "th", loc.Code)

	path := filepath.Join(t.TempDir(), "locale.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_title: Contact\n"), 0o600))
	c.Contact.LocaleFile = path
	loc, err = initLocale(c)
	require.NoError(t, err)
	assert.Equal(t, "Contact", loc.DefaultTitle)

	c.Contact.Locale = "xx"
	_, err = initLocale(c)
	assert.Error(t, err)
}

func TestFormatStoredLeads(t *testing.T) {
	at := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatStoredLeads(&buf, []model.StoredLead{{
		SearchID:  "abc12345-6789-0000-0000-000000000000",
		Lead:      model.LeadRecord{CompanyName: "Cafe Amazon", LeadName: "สมชาย", Email: "a@cafe.co.th", Phone: "021234567"},
		Keywords:  "ร้านกาแฟ",
		CreatedAt: at,
	}})

	out := buf.String()
	assert.Contains(t, out, "COMPANY")
	assert.Contains(t, out, "2026-06-15 10:30")
	assert.Contains(t, out, "abc12345 ")
	assert.NotContains(t, out, "abc12345-")
	assert.Contains(t, out, "Cafe Amazon")
	assert.Contains(t, out, "ร้านกาแฟ")
}

func TestFormatSearchLogs(t *testing.T) {
	var buf bytes.Buffer
	formatSearchLogs(&buf, []model.SearchLog{
		{Level: model.LogInfo, Message: "search started", CreatedAt: time.Date(2026, 1, 1, 8, 0, 1, 0, time.UTC)},
		{Level: model.LogError, Message: "place failed", CompanyName: "Cafe B"},
	})
	out := buf.String()
	assert.Contains(t, out, "08:00:01")
	assert.Contains(t, out, "search started")
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "Cafe B")
}

func TestFormatLeadRecords(t *testing.T) {
	var buf bytes.Buffer
	formatLeadRecords(&buf, []model.LeadRecord{model.ErrorLead("Broken Shop")})
	out := buf.String()
	assert.Contains(t, out, "PHASE")
	assert.Contains(t, out, "Broken Shop")
	assert.Contains(t, out, model.PhaseError)
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 10))
	assert.Equal(t, "ร้านก...", truncateCell("ร้านกาแฟสด", 8))
	assert.Equal(t, "abc", shortID("abc"))
}
