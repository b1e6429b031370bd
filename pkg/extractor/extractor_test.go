package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/tenders/internal/models"
)

const sampleTender = `GOVERNMENT OF EXAMPLE STATE
Inviting Authority: Executive Engineer, Public Works Department
Tender Title: Construction of rural roads in Block A
Tender Reference Number: PWD/RD/2024/17 dt 05-01-2024

Critical Dates
Bid Submission Start Date 10 Jan 2024
Bid Submission End Date 31-Jan-2024
Technical Bid Opening 02 Feb 2024
`

func TestExtract(t *testing.T) {
	e := New(Config{Now: fixedClock})

	out := e.Extract(sampleTender)
	rec := out.Record

	assert.Equal(t, "Construction of rural roads in Block A", rec.Title)
	assert.Equal(t, "PWD/RD/2024/17", rec.ReferenceNumber)
	assert.Equal(t, "Executive Engineer, Public Works Department", rec.OrganizationName)
	require.NotNil(t, rec.BidSubmissionStartDate)
	assert.Equal(t, "2024-01-10", *rec.BidSubmissionStartDate)
	require.NotNil(t, rec.BidSubmissionEndDate)
	assert.Equal(t, "2024-01-31", *rec.BidSubmissionEndDate)
	require.NotNil(t, rec.BidOpeningDate)
	assert.Equal(t, "2024-02-02", *rec.BidOpeningDate)
	assert.Equal(t, strings.Join(strings.Fields(sampleTender), " "), rec.Description)
	assert.Equal(t, "", rec.ShortSummary)

	for _, name := range models.FieldNames {
		require.Contains(t, out.Outcomes, name)
	}
	assert.Equal(t, models.StatusFound, out.Outcomes[models.FieldTitle].Status)
	assert.Equal(t, models.StatusAbsent, out.Outcomes[models.FieldShortSummary].Status)
}

func TestExtractTitleIsCaseInsensitive(t *testing.T) {
	e := New(Config{})

	upper := e.Extract("TENDER TITLE: Road Works\n").Record
	lower := e.Extract("tender title: Road Works\n").Record

	assert.Equal(t, "Road Works", upper.Title)
	assert.Equal(t, upper.Title, lower.Title)
}

func TestExtractFieldsAreIndependent(t *testing.T) {
	e := New(Config{})

	out := e.Extract("Notice inviting e-tenders\nTender No: KMC/ENG/88 dt 12-11-2023\n")

	assert.Equal(t, "", out.Record.Title)
	assert.Equal(t, models.StatusAbsent, out.Outcomes[models.FieldTitle].Status)
	assert.Equal(t, "KMC/ENG/88", out.Record.ReferenceNumber)
	assert.Equal(t, models.StatusFound, out.Outcomes[models.FieldReferenceNumber].Status)
	assert.Equal(t, "", out.Record.OrganizationName)
	assert.Nil(t, out.Record.BidSubmissionStartDate)
	assert.Nil(t, out.Record.BidSubmissionEndDate)
	assert.Nil(t, out.Record.BidOpeningDate)
}

func TestExtractBadDateDoesNotAffectOtherFields(t *testing.T) {
	e := New(Config{})

	text := "Title: Supply of pumps\nClosing Date: 99 Zzz 2024\nOpening Date: 05 Mar 2024\n"
	out := e.Extract(text)

	assert.Equal(t, "Supply of pumps", out.Record.Title)
	assert.Nil(t, out.Record.BidSubmissionEndDate)
	assert.Equal(t, models.StatusFailed, out.Outcomes[models.FieldSubmissionEnd].Status)
	require.NotNil(t, out.Record.BidOpeningDate)
	assert.Equal(t, "2024-03-05", *out.Record.BidOpeningDate)
}

func TestExtractOrganizationStopsAtLineEnd(t *testing.T) {
	e := New(Config{})

	out := e.Extract("Company - Acme Infra Pvt Ltd  \r\nAddress: 1 Main Road\n")

	assert.Equal(t, "Acme Infra Pvt Ltd", out.Record.OrganizationName)
}

func TestExtractLabelWithoutValue(t *testing.T) {
	e := New(Config{})

	out := e.Extract("Title:")

	assert.Equal(t, "", out.Record.Title)
	assert.Equal(t, models.StatusAbsent, out.Outcomes[models.FieldTitle].Status)
}

func TestExtractDescriptionBounded(t *testing.T) {
	e := New(Config{})

	var lines []string
	for i := 0; i < 1500; i++ {
		lines = append(lines, fmt.Sprintf("tok%d", i))
	}
	out := e.Extract(strings.Join(lines, "\n"))

	words := strings.Split(out.Record.Description, " ")
	require.Len(t, words, 1000)
	assert.Equal(t, "tok999", words[999])
}

func TestExtractEmptyText(t *testing.T) {
	e := New(Config{})

	out := e.Extract("")

	assert.Equal(t, models.ExtractedRecord{}, out.Record)
	assert.Len(t, out.Outcomes, len(models.FieldNames))
}
