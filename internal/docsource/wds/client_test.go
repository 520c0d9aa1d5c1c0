package wds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// newTestClient creates a client pointed at a test server, tuned for fast
// retries.
func newTestClient(serverURL string) *Client {
	return New(Config{
		BaseURL:     serverURL,
		Language:    "English",
		StartDate:   "2017-01-01",
		EndDate:     "2025-05-16",
		Timeout:     5 * time.Second,
		RateLimit:   1000,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})
}

// samplePageBody is a response in the API's native shape: documents keyed
// by identifier, a facets entry mixed in, and numbers serialized as
// strings.
const samplePageBody = `{
	"total": "2543",
	"rows": "2",
	"os": "0",
	"documents": {
		"D100": {
			"id": "D100",
			"display_title": "Agricultural Finance Review",
			"abstracts": {"cdata!": "Body text."}
		},
		"D101": {
			"id": "D101",
			"display_title": "Rural Credit Markets"
		},
		"facets": {
			"lang_exact": {"counts": {"English": 2500}}
		}
	}
}`

func TestFetchPageParsesDocumentsAndStripsFacets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, samplePageBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "agriculture", 0, 2)

	require.NoError(t, err)
	assert.Equal(t, 2543, page.Total)
	assert.Len(t, page.Documents, 2)
	assert.Contains(t, page.Documents, "D100")
	assert.Contains(t, page.Documents, "D101")
	assert.NotContains(t, page.Documents, "facets")
	assert.Equal(t, "Agricultural Finance Review", page.Documents["D100"]["display_title"])
}

func TestFetchPageSendsPaginationParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "water supply", q.Get("qterm"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "500", q.Get("rows"))
		assert.Equal(t, "1500", q.Get("os"))
		assert.Equal(t, DefaultFields, q.Get("fl"))
		assert.Equal(t, "English", q.Get("lang_exact"))
		assert.Equal(t, "2017-01-01", q.Get("strdate"))
		assert.Equal(t, "2025-05-16", q.Get("enddate"))
		io.WriteString(w, `{"total":"0","documents":{}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchPage(context.Background(), "water supply", 1500, 500)
	require.NoError(t, err)
}

func TestFetchPageUsesEchoedOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server reports serving a different offset than requested.
		io.WriteString(w, `{"total":"10","os":"40","documents":{"D1":{"id":"D1"}}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "energy", 100, 20)

	require.NoError(t, err)
	assert.Equal(t, 40, page.Offset)
}

func TestFetchPageFallsBackToRequestedOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"total":"10","documents":{"D1":{"id":"D1"}}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "energy", 100, 20)

	require.NoError(t, err)
	assert.Equal(t, 100, page.Offset)
}

func TestFetchPageServerErrorIsNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream error")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchPage(context.Background(), "health", 0, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadResponse))

	var respErr *domain.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)
	assert.Contains(t, respErr.Message, "upstream error")
	assert.Equal(t, int32(1), requests.Load(), "bad responses must not be retried")
}

func TestFetchPageUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>maintenance page</html>")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchPage(context.Background(), "health", 0, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadResponse))
	assert.Contains(t, err.Error(), "undecodable body")
}

func TestFetchPageRetriesTransportFaults(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			hj := w.(http.Hijacker)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		io.WriteString(w, samplePageBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "agriculture", 0, 2)

	require.NoError(t, err)
	assert.Len(t, page.Documents, 2)
	assert.Equal(t, int32(2), requests.Load())
}

func TestFetchPageTransportExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj := w.(http.Hijacker)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchPage(context.Background(), "agriculture", 500, 2)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransportExhausted))

	var transportErr *domain.TransportExhaustedError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "agriculture", transportErr.Query)
	assert.Equal(t, 500, transportErr.Offset)
	assert.Equal(t, 3, transportErr.Attempts)
}

func TestFetchPageValidatesArguments(t *testing.T) {
	client := newTestClient("http://unused.invalid")

	_, err := client.FetchPage(context.Background(), "q", -1, 10)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = client.FetchPage(context.Background(), "q", 0, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestFlexIntDecodesStringsAndNumbers(t *testing.T) {
	var f FlexInt

	require.NoError(t, f.UnmarshalJSON([]byte(`"1234"`)))
	assert.Equal(t, FlexInt(1234), f)

	require.NoError(t, f.UnmarshalJSON([]byte(`42`)))
	assert.Equal(t, FlexInt(42), f)

	require.NoError(t, f.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, FlexInt(0), f)

	assert.Error(t, f.UnmarshalJSON([]byte(`"abc"`)))
}
