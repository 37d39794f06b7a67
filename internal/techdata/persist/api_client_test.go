package persist_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/persist"
)

func testSections() []domain.Section {
	return []domain.Section{
		{ID: "influent", Title: "Agua de entrada", Fields: []domain.Field{
			{ID: "ph", Label: "pH", Type: domain.FieldTypeNumber, Value: 7.2},
		}},
	}
}

func TestLoad(t *testing.T) {
	t.Run("returns sections on 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/projects/p1/technical-data", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			json.NewEncoder(w).Encode(map[string]any{"sections": testSections()})
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "secret")
		sections, ok, err := c.Load(context.Background(), "p1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, sections, 1)
		assert.Equal(t, "influent", sections[0].ID)
	})

	t.Run("404 means no data yet", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		sections, ok, err := c.Load(context.Background(), "p1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, sections)
	})
}

func TestSave(t *testing.T) {
	t.Run("patches the document", func(t *testing.T) {
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.URL.RawQuery)
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		err := c.Save(context.Background(), "p1", testSections(), domain.MergeModeMerge)
		require.NoError(t, err)
		assert.Contains(t, string(gotBody), `"sections"`)
	})

	t.Run("replace mode sets the query flag", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "true", r.URL.Query().Get("replace"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		require.NoError(t, c.Save(context.Background(), "p1", testSections(), domain.MergeModeReplace))
	})
}

func TestRetryBehavior(t *testing.T) {
	t.Run("retries 5xx then succeeds", func(t *testing.T) {
		persist.ResetMetrics()

		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		err := c.Save(context.Background(), "p1", testSections(), domain.MergeModeMerge)
		require.NoError(t, err)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

		m := persist.GetMetrics()
		assert.EqualValues(t, 3, m.RemoteCalls())
		assert.EqualValues(t, 2, m.Retries())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		err := c.Save(context.Background(), "p1", testSections(), domain.MergeModeMerge)
		require.Error(t, err)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	})

	t.Run("4xx fails immediately without retry", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"code": "invalid_value", "message": "ph out of range"})
		}))
		defer srv.Close()

		c := persist.NewAPIClient(srv.URL, "")
		err := c.Save(context.Background(), "p1", testSections(), domain.MergeModeMerge)
		require.Error(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

		var apiErr *persist.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Equal(t, "invalid_value", apiErr.Code)
		assert.Contains(t, apiErr.Error(), "ph out of range")
	})
}

func TestNoopPersister(t *testing.T) {
	var p persist.Noop
	ctx := context.Background()

	sections, ok, err := p.Load(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, sections)

	assert.NoError(t, p.Save(ctx, "p1", testSections(), domain.MergeModeMerge))
}