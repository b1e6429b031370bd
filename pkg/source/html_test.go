package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenderPage = `<!DOCTYPE html>
<html>
<head>
	<title>Tender Notice - Public Works</title>
	<style>body { color: red; }</style>
</head>
<body>
	<nav>Home | Tenders | Contact</nav>
	<main>
		<h1>Tender Notice</h1>
		<div>Tender Title:   Construction of Rural Roads</div>
		<p>Tender Reference Number: PWD/2024/117</p>
		<table>
			<tr><td>Organization</td><td>Public Works Department</td></tr>
			<tr><td>Closing Date</td><td>15 Jan 2024</td></tr>
		</table>
		<script>var tracking = true;</script>
	</main>
	<footer>Copyright</footer>
</body>
</html>`

func TestFetchHTML(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(tenderPage))
	}))
	defer server.Close()

	s := NewWithConfig(SourceConfig{UserAgent: "tenders-test/1.0"})
	doc, err := s.Extract(context.Background(), server.URL+"/tender/117")
	require.NoError(t, err)

	assert.Equal(t, "tenders-test/1.0", gotAgent)
	assert.Equal(t, "Tender Notice - Public Works", doc.Title)
	assert.Equal(t, "html", doc.Method)
	assert.Equal(t, 1, doc.Pages)

	lines := strings.Split(doc.Content, "\n")
	assert.Contains(t, lines, "Tender Title: Construction of Rural Roads")
	assert.Contains(t, lines, "Tender Reference Number: PWD/2024/117")
	assert.Contains(t, lines, "Organization Public Works Department")
	assert.Contains(t, lines, "Closing Date 15 Jan 2024")
	assert.NotContains(t, doc.Content, "tracking")
	assert.NotContains(t, doc.Content, "Home | Tenders")
}

func TestFetchHTMLStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewWithConfig(SourceConfig{})
	_, err := s.Extract(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchHTMLRejectsRemotePDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	s := NewWithConfig(SourceConfig{})
	_, err := s.Extract(context.Background(), server.URL+"/notice.pdf")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestFetchHTMLCancelledContext(t *testing.T) {
	s := NewWithConfig(SourceConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Extract(ctx, "http://127.0.0.1:1/")
	assert.Error(t, err)
}

func TestReadHTMLFileBodyFallback(t *testing.T) {
	page := `<html><head><title>Notice</title></head><body>
		<div>
			<p>Tender Title: Supply of Medical Equipment to District Hospitals in the Northern Region</p>
			<p>The department invites sealed bids from eligible suppliers for the supply, installation
			and commissioning of medical equipment. Bidders must have supplied similar equipment to at
			least three public hospitals in the last five years.</p>
		</div>
	</body></html>`
	path := filepath.Join(t.TempDir(), "notice.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	s := NewWithConfig(SourceConfig{})
	doc, err := s.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Source)
	assert.Equal(t, "html", doc.Method)
	assert.Contains(t, doc.Content, "Supply of Medical Equipment")
	assert.NotEmpty(t, doc.Title)
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "Tender   Title:\t\tRoads", "Tender Title: Roads"},
		{"drops blank lines", "a\n\n   \nb", "a\nb"},
		{"trims lines", "  a  \n  b  ", "a\nb"},
		{"windows newlines", "a\r\nb", "a\nb"},
		{"non-breaking space", "Closing\u00a0Date", "Closing Date"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanContent(tt.in))
		})
	}
}
