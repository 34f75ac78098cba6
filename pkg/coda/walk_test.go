package coda

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/testutil"
)

func TestWalkDocumentsFollowsPages(t *testing.T) {
	srv := testutil.NewCodaServer(t,
		testutil.FakeDoc{ID: "d1"},
		testutil.FakeDoc{ID: "d2"},
		testutil.FakeDoc{ID: "d3"},
	)
	srv.PageSize = 2

	client := NewClient(testConfig(srv.URL))

	var ids []string
	err := client.WalkDocuments(context.Background(), func(doc Item) error {
		ids = append(ids, doc.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"d1", "d2", "d3"}, ids)
	assert.Equal(t, []string{
		"/docs?isOwner=true",
		"/docs?isOwner=true&pageToken=2",
	}, srv.Requests())
}

func TestWalkRejectsCyclingPageTokens(t *testing.T) {
	tests := []struct {
		name     string
		next     map[string]string
		requests int64
	}{
		{name: "same token", next: map[string]string{"": "A", "A": "A"}, requests: 2},
		{name: "two step cycle", next: map[string]string{"": "A", "A": "B", "B": "A"}, requests: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt64(&requests, 1)
				if n > 20 {
					http.Error(w, "too many pages", http.StatusTeapot)
					return
				}
				next := tt.next[r.URL.Query().Get("pageToken")]
				fmt.Fprintf(w, `{"items": [{"id": "d%d", "type": "doc"}], "nextPageToken": %q}`, n, next)
			}))
			defer srv.Close()

			client := NewClient(testConfig(srv.URL))
			visited := 0
			err := client.WalkDocuments(context.Background(), func(doc Item) error {
				visited++
				return nil
			})

			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
			assert.Equal(t, tt.requests, atomic.LoadInt64(&requests))
			assert.Equal(t, int(tt.requests), visited)
		})
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	srv := testutil.NewCodaServer(t, testutil.FakeDoc{ID: "d1"}, testutil.FakeDoc{ID: "d2"})
	client := NewClient(testConfig(srv.URL))

	boom := errors.New(errors.ErrorTypeInternal, "boom")
	visited := 0
	err := client.WalkDocuments(context.Background(), func(doc Item) error {
		visited++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, visited)
}

func TestWalkSkipAll(t *testing.T) {
	srv := testutil.NewCodaServer(t, testutil.FakeDoc{ID: "d1"}, testutil.FakeDoc{ID: "d2"})
	client := NewClient(testConfig(srv.URL))

	visited := 0
	err := client.WalkDocuments(context.Background(), func(doc Item) error {
		visited++
		return SkipAll
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestWalkHonoursCancellation(t *testing.T) {
	srv := testutil.NewCodaServer(t, testutil.FakeDoc{ID: "d1"})
	client := NewClient(testConfig(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.WalkDocuments(ctx, func(doc Item) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
	assert.Empty(t, srv.Requests())
}

func TestFirstTable(t *testing.T) {
	srv := testutil.NewCodaServer(t,
		testutil.FakeDoc{ID: "d1"},
		testutil.FakeDoc{ID: "d2", Tables: []testutil.FakeTable{{ID: "t1"}, {ID: "t2"}}},
		testutil.FakeDoc{ID: "d3", Tables: []testutil.FakeTable{{ID: "t3"}}},
	)
	client := NewClient(testConfig(srv.URL))

	doc, table, found, err := client.FirstTable(context.Background())
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "d2", doc.ID)
	assert.Equal(t, "t1", table.ID)
	assert.Equal(t, []string{
		"/docs?isOwner=true",
		"/docs/d1/tables",
		"/docs/d2/tables",
	}, srv.Requests())
}

func TestFirstTableNone(t *testing.T) {
	srv := testutil.NewCodaServer(t, testutil.FakeDoc{ID: "d1"})
	client := NewClient(testConfig(srv.URL))

	_, _, found, err := client.FirstTable(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFirstTablePropagatesErrors(t *testing.T) {
	srv := testutil.NewCodaServer(t, testutil.FakeDoc{ID: "d1"})
	srv.FailWith("/docs/d1/tables", http.StatusForbidden)
	client := NewClient(testConfig(srv.URL))

	_, _, found, err := client.FirstTable(context.Background())
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
}
