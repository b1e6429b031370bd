// Package extractor pulls the fixed tender schema out of raw document text.
//
// Every field is located independently by a case-insensitive, first match in
// document order. No scoring or disambiguation happens between candidates,
// so changing a pattern's precedence changes output on real documents.
package extractor

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/logger"
	"github.com/xhad/tenders/pkg/processor"
)

var (
	titleRe        = regexp.MustCompile(`(?i)(tender\s*title|title)\s*[:\-]?\s*(.*)`)
	organizationRe = regexp.MustCompile(`(?i)(inviting authority|organization|company)\s*[:\-]?\s*(.*)`)
)

type Config struct {
	DescriptionTokens int
	PreferMonthFirst  bool
	Logger            *zap.Logger
	Now               func() time.Time
}

// Extractor applies the per-field extraction rules to document text.
type Extractor struct {
	dates     *DateNormalizer
	processor processor.Processor
	logger    *zap.Logger
}

// Extraction is the record plus how each of its fields was obtained.
type Extraction struct {
	Record   models.ExtractedRecord
	Outcomes map[string]models.FieldOutcome
}

func New(cfg Config) *Extractor {
	log := logger.OrNop(cfg.Logger)

	opts := []DateOption{
		WithPreferMonthFirst(cfg.PreferMonthFirst),
		WithDateLogger(log),
	}
	if cfg.Now != nil {
		opts = append(opts, WithClock(cfg.Now))
	}

	return &Extractor{
		dates: NewDateNormalizer(opts...),
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			DescriptionTokens: cfg.DescriptionTokens,
		}),
		logger: log,
	}
}

// Extract builds a record from text. It never fails: a field that cannot be
// found is left empty and its outcome says why.
func (e *Extractor) Extract(text string) Extraction {
	out := Extraction{Outcomes: make(map[string]models.FieldOutcome, len(models.FieldNames))}
	rec := &out.Record

	rec.Title, out.Outcomes[models.FieldTitle] = firstLine(titleRe, text)
	rec.OrganizationName, out.Outcomes[models.FieldOrganizationName] = firstLine(organizationRe, text)

	rec.ReferenceNumber = ExtractReferenceNumber(text)
	out.Outcomes[models.FieldReferenceNumber] = presence(rec.ReferenceNumber)

	rec.BidSubmissionStartDate = e.date(SubmissionStartLabels, text, out.Outcomes)
	rec.BidSubmissionEndDate = e.date(SubmissionEndLabels, text, out.Outcomes)
	rec.BidOpeningDate = e.date(BidOpeningLabels, text, out.Outcomes)

	rec.Description = e.processor.Description(text)
	out.Outcomes[models.FieldDescription] = presence(rec.Description)

	// Filled in by the summary stage.
	out.Outcomes[models.FieldShortSummary] = models.Absent("not summarized")

	e.logger.Debug("fields extracted",
		zap.String("title", rec.Title),
		zap.String("reference", rec.ReferenceNumber),
		zap.Int("description_chars", len(rec.Description)),
	)

	return out
}

func (e *Extractor) date(set LabelSet, text string, outcomes map[string]models.FieldOutcome) *string {
	res := e.dates.ParseDate(set.Labels, text)
	outcomes[set.Field] = res.Outcome
	return res.Value
}

// firstLine returns the trimmed remainder of the line after the first match
// of re's label group.
func firstLine(re *regexp.Regexp, text string) (string, models.FieldOutcome) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", models.Absent("label not found")
	}
	value := m[2]
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", models.Absent("label found without a value")
	}
	return value, models.Found()
}

func presence(value string) models.FieldOutcome {
	if value == "" {
		return models.Absent("label not found")
	}
	return models.Found()
}
