package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/store"
)

const testVectorDim = 4

type fixedEmbedder struct{}

func (fixedEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, testVectorDim)
		for j := range v {
			v[j] = float32(len(text)%(j+2)) + 1
		}
		out[i] = v
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func openTestStore(t *testing.T) *store.TenderStore {
	t.Helper()
	url := os.Getenv("TENDERS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TENDERS_TEST_DATABASE_URL not set")
	}

	s, err := store.NewWithConfig(context.Background(), store.TenderStoreConfig{
		ConnString: url,
		TableName:  "test_tenders",
		VectorDim:  testVectorDim,
		Embedder:   fixedEmbedder{},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestTenderStoreSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := models.ExtractedRecord{
		Title:                "Construction of Rural Roads",
		ReferenceNumber:      "PWD/2024/117",
		OrganizationName:     "Public Works Department",
		BidSubmissionEndDate: strPtr("2024-01-15"),
		Description:          "Tender Title: Construction of Rural Roads",
		ShortSummary:         "Road construction tender.",
	}

	id, err := s.Save(ctx, "ten.pdf", rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "ten.pdf", got.Source)
	assert.Equal(t, rec, got.Record)
	assert.False(t, got.CreatedAt.IsZero())

	similar, err := s.Similar(ctx, "Road construction tender.", 10)
	require.NoError(t, err)
	require.NotEmpty(t, similar)
	assert.InDelta(t, 0.0, similar[0].Distance, 1e-6)
}

func TestTenderStoreRejectsMalformedDate(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save(context.Background(), "ten.pdf", models.ExtractedRecord{BidOpeningDate: strPtr("15 Jan 2024")})
	assert.Error(t, err)
}

func TestTenderStoreGetUnknown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
