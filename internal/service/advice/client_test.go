package advice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAdviceSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-Id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "where should I go?", body["message"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"advice":"Lisbon in spring."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", WithBearerToken("tok"))
	ctx := ContextWithRequestID(context.Background(), "req-1")

	got, err := client.GetAdvice(ctx, "where should I go?")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon in spring.", got)
}

func TestGetAdviceEmptyAdviceIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"advice":""}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).GetAdvice(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestGetAdviceFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{
			name: "server error with error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"model offline"}`))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "model offline",
		},
		{
			name: "not found plain body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantStatus: http.StatusOK,
			wantMsg:    "decode response",
		},
		{
			name: "missing advice field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"reply":"hi"}`))
			},
			wantStatus: http.StatusOK,
			wantMsg:    "no advice field",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL).GetAdvice(context.Background(), "hi")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRequestFailed))

			var failure *RequestFailure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tc.wantStatus, failure.StatusCode)
			assert.NotEmpty(t, failure.RequestID)
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestGetAdviceTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).GetAdvice(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)

	var failure *RequestFailure
	require.ErrorAs(t, err, &failure)
	assert.Zero(t, failure.StatusCode)
}

func TestGetAdviceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, WithTimeout(20*time.Millisecond)).GetAdvice(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
