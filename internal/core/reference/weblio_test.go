package reference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>予約</title><script>var x = 1;</script></head>
<body>
<div class="header">ヘッダー</div>
<div class="kiji main">
  <h2>予約</h2>
  <p> よやく 【予約】 </p>
  <script>ignored()</script>
  <p>前もって約束すること。</p>
</div>
<div class="kiji">second article</div>
</body></html>`

func TestWeblioFetcherExtractsFirstArticle(t *testing.T) {
	var gotPath, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := &WeblioFetcher{BaseURL: server.URL, Client: server.Client(), UserAgent: "trilingua-test"}
	text, err := fetcher.FetchReferenceText(context.Background(), "予約")
	require.NoError(t, err)
	require.Equal(t, "予約よやく 【予約】前もって約束すること。", text)
	require.Equal(t, "/content/%E4%BA%88%E7%B4%84", gotPath)
	require.Equal(t, "trilingua-test", gotUA)
}

func TestWeblioFetcherNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := &WeblioFetcher{BaseURL: server.URL, Client: server.Client()}
	_, err := fetcher.FetchReferenceText(context.Background(), "apple")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestWeblioFetcherMissingArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer server.Close()

	fetcher := &WeblioFetcher{BaseURL: server.URL, Client: server.Client()}
	_, err := fetcher.FetchReferenceText(context.Background(), "apple")
	require.ErrorIs(t, err, ErrNoArticle)
}

func TestWeblioFetcherThroughCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache, err := NewCache(&WeblioFetcher{BaseURL: server.URL, Client: server.Client()}, Options{})
	require.NoError(t, err)

	require.Equal(t, "", cache.Fetch(context.Background(), "apple"))
	require.Equal(t, "", cache.Fetch(context.Background(), "apple"))
	require.Equal(t, 1, hits)
}
