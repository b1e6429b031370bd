package models

// Field names as they appear in the serialized record.
const (
	FieldTitle            = "Title"
	FieldReferenceNumber  = "Reference Number"
	FieldOrganizationName = "Organization Name"
	FieldSubmissionStart  = "Bid Submission Start Date"
	FieldSubmissionEnd    = "Bid Submission End Date"
	FieldBidOpening       = "Bid Opening Date"
	FieldDescription      = "Description"
	FieldShortSummary     = "Short Summary"
)

// FieldNames lists every record field in serialization order.
var FieldNames = []string{
	FieldTitle,
	FieldReferenceNumber,
	FieldOrganizationName,
	FieldSubmissionStart,
	FieldSubmissionEnd,
	FieldBidOpening,
	FieldDescription,
	FieldShortSummary,
}

// ExtractedRecord holds the metadata extracted from one tender document.
// Nil dates serialize as null so every key is always present.
type ExtractedRecord struct {
	Title                  string  `json:"Title"`
	ReferenceNumber        string  `json:"Reference Number"`
	OrganizationName       string  `json:"Organization Name"`
	BidSubmissionStartDate *string `json:"Bid Submission Start Date"`
	BidSubmissionEndDate   *string `json:"Bid Submission End Date"`
	BidOpeningDate         *string `json:"Bid Opening Date"`
	Description            string  `json:"Description"`
	ShortSummary           string  `json:"Short Summary"`
}

// WithSummary returns a copy of the record carrying the given short summary.
func (r ExtractedRecord) WithSummary(summary string) ExtractedRecord {
	r.ShortSummary = summary
	return r
}

// Values returns the record as field name -> display value, dates rendered
// as "" when absent.
func (r ExtractedRecord) Values() map[string]string {
	return map[string]string{
		FieldTitle:            r.Title,
		FieldReferenceNumber:  r.ReferenceNumber,
		FieldOrganizationName: r.OrganizationName,
		FieldSubmissionStart:  deref(r.BidSubmissionStartDate),
		FieldSubmissionEnd:    deref(r.BidSubmissionEndDate),
		FieldBidOpening:       deref(r.BidOpeningDate),
		FieldDescription:      r.Description,
		FieldShortSummary:     r.ShortSummary,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OutcomeStatus describes how a field extraction ended.
type OutcomeStatus string

const (
	StatusFound  OutcomeStatus = "found"
	StatusAbsent OutcomeStatus = "absent"
	StatusFailed OutcomeStatus = "failed"
)

// FieldOutcome records the result of extracting a single field.
type FieldOutcome struct {
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

func Found() FieldOutcome { return FieldOutcome{Status: StatusFound} }

func Absent(reason string) FieldOutcome {
	return FieldOutcome{Status: StatusAbsent, Reason: reason}
}

func Failed(reason string) FieldOutcome {
	return FieldOutcome{Status: StatusFailed, Reason: reason}
}
