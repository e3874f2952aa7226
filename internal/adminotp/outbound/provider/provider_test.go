package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newTestClient(t *testing.T, url string, maxTries int) *Client {
	t.Helper()

	c, err := New(Config{URL: url, MaxTries: maxTries, Backoff: time.Millisecond, Timeout: time.Second}, instrument.NewNoop())
	require.NoError(t, err)
	return c
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{}, instrument.NewNoop())
	assert.ErrorIs(t, err, ErrURLRequired)
}

func TestRequestCode_FirstAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"to": "09120000000"}, body)

		_, _ = w.Write([]byte(`{"code":"123456"}`))
	}))
	defer srv.Close()

	code, err := newTestClient(t, srv.URL, 3).RequestCode(context.Background(), "09120000000")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestCode_RetriesUntilCode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			_, _ = w.Write([]byte(`not json`))
		case 3:
			_, _ = w.Write([]byte(`{"code":""}`))
		default:
			_, _ = w.Write([]byte(`{"code":"A1b2C3"}`))
		}
	}))
	defer srv.Close()

	code, err := newTestClient(t, srv.URL, 3).RequestCode(context.Background(), "0912")
	require.NoError(t, err)
	assert.Equal(t, "A1b2C3", code)
	assert.Equal(t, int32(4), calls.Load())
}

func TestRequestCode_ExhaustsBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	code, err := newTestClient(t, srv.URL, 2).RequestCode(context.Background(), "0912")
	assert.ErrorIs(t, err, ErrCodeUnavailable)
	assert.Empty(t, code)
	assert.Equal(t, int32(3), calls.Load(), "ceiling of 2 retries means 3 requests")
}

func TestRequestCode_ZeroCeilingCallsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).RequestCode(context.Background(), "0912")
	assert.ErrorIs(t, err, ErrCodeUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestCode_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, 1).RequestCode(context.Background(), "0912")
	assert.ErrorIs(t, err, ErrCodeUnavailable)
}
