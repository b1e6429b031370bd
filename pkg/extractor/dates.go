package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/logger"
)

// CanonicalLayout is the layout every normalized date is rendered in.
const CanonicalLayout = "2006-01-02"

// day, month word, year; separators between them are optional.
const dateToken = `(\d{1,2})[-\s]?([A-Za-z]{3,9})[-\s]?(\d{2,4})`

var months = map[string]string{
	"jan": "Jan", "feb": "Feb", "mar": "Mar", "apr": "Apr",
	"may": "May", "jun": "Jun", "jul": "Jul", "aug": "Aug",
	"sep": "Sep", "oct": "Oct", "nov": "Nov", "dec": "Dec",
}

var fullMonths = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "sept": true, "october": true, "november": true,
	"december": true,
}

// DateResult is the outcome of looking up one date field.
type DateResult struct {
	Value   *string
	Label   string // label that produced Value
	Outcome models.FieldOutcome
}

// DateNormalizer finds labelled date tokens in text and renders them as
// YYYY-MM-DD.
type DateNormalizer struct {
	preferMonthFirst bool
	logger           *zap.Logger
	now              func() time.Time

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

type DateOption func(*DateNormalizer)

// WithPreferMonthFirst sets how the fuzzy parser resolves ambiguous
// day/month order.
func WithPreferMonthFirst(prefer bool) DateOption {
	return func(n *DateNormalizer) { n.preferMonthFirst = prefer }
}

func WithDateLogger(l *zap.Logger) DateOption {
	return func(n *DateNormalizer) { n.logger = logger.OrNop(l) }
}

// WithClock sets the reference time used to expand two-digit years.
func WithClock(now func() time.Time) DateOption {
	return func(n *DateNormalizer) { n.now = now }
}

func NewDateNormalizer(opts ...DateOption) *DateNormalizer {
	n := &DateNormalizer{
		logger:   zap.NewNop(),
		now:      time.Now,
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ParseDate tries each label in order and returns the first date that both
// matches and parses. Parse failures are logged and the next label is tried.
func (n *DateNormalizer) ParseDate(labels []string, text string) DateResult {
	var failures []string

	for _, label := range labels {
		m := n.pattern(label).FindStringSubmatch(text)
		if m == nil {
			continue
		}

		date, err := n.parse(m[2], m[3], m[4])
		if err != nil {
			n.logger.Warn("failed to parse date",
				zap.String("label", label),
				zap.String("token", m[1]),
				zap.Error(err),
			)
			failures = append(failures, fmt.Sprintf("%q: %v", m[1], err))
			continue
		}

		value := date.Format(CanonicalLayout)
		return DateResult{Value: &value, Label: label, Outcome: models.Found()}
	}

	if len(failures) > 0 {
		return DateResult{Outcome: models.Failed(strings.Join(failures, "; "))}
	}
	return DateResult{Outcome: models.Absent("no label matched a date")}
}

func (n *DateNormalizer) pattern(label string) *regexp.Regexp {
	n.mu.Lock()
	defer n.mu.Unlock()

	if re, ok := n.patterns[label]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)` + labelExpr(label) + `\s*[:\-]?\s*(` + dateToken + `)`)
	n.patterns[label] = re
	return re
}

func (n *DateNormalizer) parse(day, month, year string) (time.Time, error) {
	mon, ok := canonicalMonth(month)
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", month)
	}

	if len(year) == 2 {
		yy, _ := strconv.Atoi(year)
		year = strconv.Itoa(expandYear(yy, n.now().Year()))
	}

	raw := fmt.Sprintf("%s %s %s", day, mon, year)
	t, err := dateparse.ParseIn(raw, time.UTC, dateparse.PreferMonthFirst(n.preferMonthFirst))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// canonicalMonth maps "jan", "JANUARY", "Sept" and friends to "Jan".
func canonicalMonth(word string) (string, bool) {
	lower := strings.ToLower(word)
	if len(lower) < 3 {
		return "", false
	}
	short, ok := months[lower[:3]]
	if !ok {
		return "", false
	}
	if len(lower) == 3 || fullMonths[lower] {
		return short, true
	}
	return "", false
}

// expandYear resolves a two-digit year to the century that puts it within
// 50 years of the reference year.
func expandYear(yy, ref int) int {
	year := ref/100*100 + yy
	if year >= ref+50 {
		year -= 100
	} else if year < ref-50 {
		year += 100
	}
	return year
}

// labelExpr quotes a label and lets any run of whitespace separate its words.
func labelExpr(label string) string {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}
