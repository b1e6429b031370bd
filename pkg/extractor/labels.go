package extractor

import "github.com/xhad/tenders/internal/models"

// LabelSet is an ordered alternation of label synonyms anchoring a field.
// Order is precedence: the first label that yields a value wins.
type LabelSet struct {
	Field  string
	Labels []string
}

var (
	SubmissionStartLabels = LabelSet{
		Field:  models.FieldSubmissionStart,
		Labels: []string{"bid submission start date", "start date"},
	}
	SubmissionEndLabels = LabelSet{
		Field:  models.FieldSubmissionEnd,
		Labels: []string{"submission end date", "last date of submission", "closing date"},
	}
	BidOpeningLabels = LabelSet{
		Field:  models.FieldBidOpening,
		Labels: []string{"bid opening date", "opening date", "technical bid opening"},
	}
)
