package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"expense-bot/internal/query"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultTemplates is used when the model names no known template.
var defaultTemplates = map[QueryType]query.Kind{
	QueryTypeAmount:   query.KindTotalSpent,
	QueryTypeTemporal: query.KindMonthlyTrend,
	QueryTypeCategory: query.KindSpendingByCategory,
	QueryTypeStatus:   query.KindRecentExpenses,
	QueryTypeDocument: query.KindDocumentCount,
	QueryTypeUnknown:  query.KindTotalSpent,
}

// flexInt accepts 5 as well as "5".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type rawTranslation struct {
	Template string `json:"template"`
	Period   struct {
		Preset string  `json:"preset"`
		Month  flexInt `json:"month"`
		Year   flexInt `json:"year"`
		From   string  `json:"from"`
		To     string  `json:"to"`
	} `json:"period"`
	Category        string  `json:"category"`
	SearchTerm      string  `json:"searchTerm"`
	Limit           flexInt `json:"limit"`
	NaturalResponse string  `json:"naturalResponse"`
	IncludeChart    bool    `json:"includeChart"`
}

// Translator turns a question into template parameters. The model output is
// untrusted: every field is checked against allow-lists and resolved here,
// and the result carries no SQL.
type Translator struct {
	llm      Completer
	now      func() time.Time
	location *time.Location
	logger   *zap.Logger
}

func NewTranslator(llm Completer, location *time.Location, logger *zap.Logger) *Translator {
	if location == nil {
		location = time.UTC
	}
	return &Translator{
		llm:      llm,
		now:      time.Now,
		location: location,
		logger:   logger,
	}
}

func (t *Translator) Translate(ctx context.Context, question string, categoryNames []string, queryType QueryType) (*query.Translation, error) {
	today := t.today()

	vocabulary := "nenhuma"
	if len(categoryNames) > 0 {
		vocabulary = strings.Join(categoryNames, ", ")
	}
	system := fmt.Sprintf(translationInstruction, today.Format("2006-01-02"), vocabulary)

	content, err := t.llm.Complete(ctx, system, strings.TrimSpace(question))
	if err != nil {
		return nil, fmt.Errorf("%w: translation model call failed: %v", ErrExecution, err)
	}

	var raw rawTranslation
	if err := decodeJSONObject(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	return t.resolve(&raw, categoryNames, queryType, today)
}

func (t *Translator) resolve(raw *rawTranslation, categoryNames []string, queryType QueryType, today time.Time) (*query.Translation, error) {
	kind := query.Kind(strings.TrimSpace(raw.Template))
	if !kind.Valid() {
		kind = defaultTemplates[queryType]
		if kind == "" {
			kind = query.KindTotalSpent
		}
		t.logger.Debug("Unknown template, using default",
			zap.String("template", raw.Template),
			zap.String("default", string(kind)),
		)
	}

	period, err := resolvePeriod(raw, today)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	category := ""
	if name := strings.TrimSpace(raw.Category); name != "" {
		var ok bool
		category, ok = matchCategory(name, categoryNames)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrExecution, name)
		}
	}

	searchTerm := truncateRunes(strings.TrimSpace(raw.SearchTerm), query.MaxSearchTerm)
	if kind == query.KindItemSearch && searchTerm == "" {
		return nil, fmt.Errorf("%w: item search without a term", ErrExecution)
	}

	limit := int(raw.Limit)
	switch {
	case limit <= 0:
		limit = query.DefaultLimit
	case limit > query.MaxLimit:
		limit = query.MaxLimit
	}

	return &query.Translation{
		Spec: query.Spec{
			Kind:       kind,
			Period:     period,
			Category:   category,
			SearchTerm: searchTerm,
			Limit:      limit,
		},
		QueryType:        string(queryType),
		ResponseTemplate: strings.TrimSpace(raw.NaturalResponse),
		IncludeChart:     raw.IncludeChart,
	}, nil
}

// today is the current calendar date in the user's zone, expressed as UTC
// midnight like stored expense dates.
func (t *Translator) today() time.Time {
	now := t.now().In(t.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func resolvePeriod(raw *rawTranslation, today time.Time) (query.Period, error) {
	p := raw.Period
	year := today.Year()
	firstOfMonth := time.Date(year, today.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(strings.TrimSpace(p.Preset)) {
	case "this_month":
		return query.Period{Start: firstOfMonth, End: firstOfMonth.AddDate(0, 1, 0), Label: "neste mês"}, nil
	case "last_month":
		return query.Period{Start: firstOfMonth.AddDate(0, -1, 0), End: firstOfMonth, Label: "no mês passado"}, nil
	case "this_year":
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return query.Period{Start: start, End: start.AddDate(1, 0, 0), Label: "neste ano"}, nil
	case "last_year":
		start := time.Date(year-1, 1, 1, 0, 0, 0, 0, time.UTC)
		return query.Period{Start: start, End: start.AddDate(1, 0, 0), Label: "no ano passado"}, nil
	case "last_7_days":
		return query.Period{Start: today.AddDate(0, 0, -6), End: today.AddDate(0, 0, 1), Label: "nos últimos 7 dias"}, nil
	case "last_30_days":
		return query.Period{Start: today.AddDate(0, 0, -29), End: today.AddDate(0, 0, 1), Label: "nos últimos 30 dias"}, nil
	case "month":
		month := int(p.Month)
		if month < 1 || month > 12 {
			return query.Period{}, fmt.Errorf("invalid month %d", month)
		}
		// a month without a year always means the current year
		if p.Year > 0 {
			year = int(p.Year)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return query.Period{
			Start: start,
			End:   start.AddDate(0, 1, 0),
			Label: fmt.Sprintf("em %s de %d", monthNames[month-1], year),
		}, nil
	case "year":
		if p.Year > 0 {
			year = int(p.Year)
		}
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return query.Period{Start: start, End: start.AddDate(1, 0, 0), Label: fmt.Sprintf("em %d", year)}, nil
	case "range":
		from, err := time.Parse("2006-01-02", strings.TrimSpace(p.From))
		if err != nil {
			return query.Period{}, fmt.Errorf("invalid range start %q", p.From)
		}
		to, err := time.Parse("2006-01-02", strings.TrimSpace(p.To))
		if err != nil {
			return query.Period{}, fmt.Errorf("invalid range end %q", p.To)
		}
		if to.Before(from) {
			return query.Period{}, fmt.Errorf("range ends before it starts")
		}
		return query.Period{
			Start: from,
			End:   to.AddDate(0, 0, 1),
			Label: fmt.Sprintf("entre %s e %s", from.Format("02/01/2006"), to.Format("02/01/2006")),
		}, nil
	default:
		return query.Period{}, nil
	}
}

// matchCategory maps a model-supplied name onto the live vocabulary,
// ignoring case and accents, and returns the canonical spelling.
func matchCategory(name string, vocabulary []string) (string, bool) {
	for _, known := range vocabulary {
		if known == name {
			return known, true
		}
	}
	folded := foldAccents(name)
	for _, known := range vocabulary {
		if strings.EqualFold(foldAccents(known), folded) {
			return known, true
		}
	}
	return "", false
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
