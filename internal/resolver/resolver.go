// Package resolver refines extracted contact evidence into a single lead
// using an LLM. It is advisory: callers fall back to the directly
// extracted signals when it fails.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

const (
	defaultMaxInputChars = 4000
	maxConfidence        = 100
)

// Resolution is the resolver's pick for a place. Absent fields hold the
// model sentinels ("N/A", "none").
type Resolution struct {
	LeadName   string `json:"leadName"`
	LeadTitle  string `json:"leadTitle"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Confidence int    `json:"confidence"`
}

// Error is a typed resolver failure.
type Error struct {
	Op  string // complete, empty, parse
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "resolver: " + e.Op
	}
	return "resolver: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver turns raw evidence text into a Resolution.
type Resolver struct {
	completer   Completer
	maxInput    int
	phoneFormat string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxInputChars bounds the evidence sent to the model, in characters.
func WithMaxInputChars(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxInput = n
		}
	}
}

// WithPhoneFormat sets the phone formatting instruction given to the model.
func WithPhoneFormat(s string) Option {
	return func(r *Resolver) {
		if s != "" {
			r.phoneFormat = s
		}
	}
}

// New returns a Resolver over c.
func New(c Completer, opts ...Option) *Resolver {
	r := &Resolver{
		completer:   c,
		maxInput:    defaultMaxInputChars,
		phoneFormat: "Thai format (02-xxx-xxxx or 08x-xxx-xxxx)",
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve asks the model for the best-matching decision maker in rawText.
// A returned email always appears verbatim in the text that was sent.
func (r *Resolver) Resolve(ctx context.Context, rawText string, targetTitles []string, companyName string) (*Resolution, error) {
	text := truncate(rawText, r.maxInput)
	titles := strings.Join(targetTitles, ", ")

	log := zap.L().With(zap.String("company", companyName))
	log.Debug("resolver: resolving",
		zap.Int("text_chars", len([]rune(text))),
		zap.String("titles", titles),
	)

	reply, err := r.completer.Complete(ctx, r.systemPrompt(titles), userPrompt(companyName, titles, text))
	if err != nil {
		return nil, &Error{Op: "complete", Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return nil, &Error{Op: "empty"}
	}

	res, err := parseReply(reply, text)
	if err != nil {
		log.Debug("resolver: unparseable reply", zap.String("reply", reply))
		return nil, err
	}

	log.Debug("resolver: resolved",
		zap.String("lead_name", res.LeadName),
		zap.String("lead_title", res.LeadTitle),
		zap.Int("confidence", res.Confidence),
	)
	return res, nil
}

func (r *Resolver) systemPrompt(titles string) string {
	return fmt.Sprintf(`You are a data extraction assistant for business contacts. Analyze the text and extract contact information for a decision maker.

Rules:
1. Only extract information explicitly stated in the text.
2. Match the person's title to one of the target titles: %s
3. Never generate or guess email addresses. Only use an email that appears in the text.
4. If no email is found, return "none".
5. Format phone numbers in %s.
6. Return a confidence score from 0 to 100 based on information quality.
7. Prefer information that appears to come from official sources.
8. If several people are found, choose the highest-ranking one.

Respond with one JSON object with the keys leadName, leadTitle, email, phone, confidence.

Example:
{"leadName": "นายสมชาย ใจดี", "leadTitle": "ผู้จัดการ", "email": "manager@company.com", "phone": "02-123-4567", "confidence": 85}`, titles, r.phoneFormat)
}

func userPrompt(company, titles, text string) string {
	return fmt.Sprintf("Company: %s\nTarget Titles: %s\n\nText to analyze:\n%s\n\nExtract the best matching decision maker's contact information.", company, titles, text)
}

// parseReply reads the model's JSON object. Missing or blank fields become
// sentinels, an email not present in text becomes "none", and confidence is
// clamped to [0, 100].
func parseReply(reply, text string) (*Resolution, error) {
	obj := cleanJSON(reply)
	if !gjson.Valid(obj) || !gjson.Parse(obj).IsObject() {
		return nil, &Error{Op: "parse", Err: eris.New("reply is not a JSON object")}
	}
	fields := gjson.GetMany(obj, "leadName", "leadTitle", "email", "phone", "confidence")

	res := &Resolution{
		LeadName:   orSentinel(fields[0], model.NotAvailable),
		LeadTitle:  orSentinel(fields[1], model.NotAvailable),
		Email:      orSentinel(fields[2], model.NoEmail),
		Phone:      orSentinel(fields[3], model.NotAvailable),
		Confidence: clamp(int(fields[4].Int()), 0, maxConfidence),
	}
	if res.Email != model.NoEmail && (!strings.Contains(res.Email, "@") || !strings.Contains(text, res.Email)) {
		res.Email = model.NoEmail
	}
	return res, nil
}

func orSentinel(v gjson.Result, sentinel string) string {
	if v.Type != gjson.String {
		return sentinel
	}
	s := strings.TrimSpace(v.String())
	if s == "" || strings.EqualFold(s, "null") {
		return sentinel
	}
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cleanJSON strips markdown code fences and surrounding prose from a model
// reply, leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
