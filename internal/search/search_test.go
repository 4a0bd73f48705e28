package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeCompleter struct {
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeCompleter) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func newTestClient(pageURL string, completer *fakeCompleter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    pageURL,
		completer:  completer,
		logger:     zap.NewNop(),
	}
}

func resultsPage(rows int) string {
	var sb strings.Builder
	sb.WriteString("<html><body><table>")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&sb, `<tr class="result-link"><td><a href="https://example.com/%d">Result %d</a></td></tr>`, i, i)
		fmt.Fprintf(&sb, `<tr class="result-snippet"><td>Snippet %d</td></tr>`, i)
	}
	sb.WriteString("</table></body></html>")
	return sb.String()
}

func TestSearchExtractsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go testing" {
			t.Errorf("query param = %q, want %q", got, "go testing")
		}
		fmt.Fprint(w, resultsPage(3))
	}))
	defer srv.Close()

	completer := &fakeCompleter{reply: "a summary"}
	resp, err := newTestClient(srv.URL, completer).Search(context.Background(), "go testing")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Summary != "a summary" {
		t.Errorf("Summary = %q", resp.Summary)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	first := resp.Results[0]
	if first.Title != "Result 1" || first.Link != "https://example.com/1" || first.Snippet != "Snippet 1" {
		t.Errorf("unexpected first result: %+v", first)
	}
	if !strings.Contains(completer.lastPrompt, "Result 2: Snippet 2") {
		t.Errorf("summary prompt missing extracted rows: %q", completer.lastPrompt)
	}
}

func TestSearchCapsAtFiveResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(8))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, &fakeCompleter{reply: "s"}).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(resp.Results))
	}
}

func TestSearchSkipsMalformedRows(t *testing.T) {
	page := `<html><body><table>
		<tr class="result-link"><td>no anchor here</td></tr>
		<tr class="result-link"><td><a href="https://example.com/ok">Good row</a></td></tr>
		<tr class="result-snippet"><td>Good snippet</td></tr>
	</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, &fakeCompleter{reply: "s"}).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Good row" {
		t.Errorf("expected only the well-formed row, got %+v", resp.Results)
	}
}

func TestSearchNoRowsStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer srv.Close()

	completer := &fakeCompleter{reply: "no results summary"}
	resp, err := newTestClient(srv.URL, completer).Search(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("Search with zero rows must not fail: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %+v", resp.Results)
	}
	if resp.Summary != "no results summary" {
		t.Errorf("Summary = %q", resp.Summary)
	}
	if !strings.Contains(completer.lastPrompt, "obscure query") {
		t.Errorf("summary prompt missing query: %q", completer.lastPrompt)
	}
}

func TestSearchPageFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, &fakeCompleter{}).Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error for failing search page")
	}
}

func TestSearchSummaryFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(1))
	}))
	defer srv.Close()

	completer := &fakeCompleter{err: fmt.Errorf("model down")}
	if _, err := newTestClient(srv.URL, completer).Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error when summarization fails")
	}
}
