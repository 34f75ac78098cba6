package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ajitpratap0/source-coda/pkg/json"
)

// FakeTable is a table served by CodaServer. Rows is the raw rows-list
// body; empty means {"items":[]}.
type FakeTable struct {
	ID   string
	Name string
	Rows string
}

// FakeDoc is a document served by CodaServer
type FakeDoc struct {
	ID     string
	Name   string
	Tables []FakeTable
}

// CodaServer is an in-process stand-in for the Coda REST API. It serves
// /docs, /docs/{id}/tables and /docs/{id}/tables/{id}/rows from fixtures
// and records every request path with its query.
type CodaServer struct {
	*httptest.Server

	// APIKey, when set, is the only bearer token accepted
	APIKey string
	// PageSize splits document and table listings into pages
	PageSize int

	mu       sync.Mutex
	docs     []FakeDoc
	failures map[string]int
	requests []string
}

// NewCodaServer starts a server for docs and closes it with the test
func NewCodaServer(t *testing.T, docs ...FakeDoc) *CodaServer {
	t.Helper()
	s := &CodaServer{
		docs:     docs,
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// FailWith makes every request to path answer status
func (s *CodaServer) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns the request URIs seen so far
func (s *CodaServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *CodaServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.RequestURI())
	status, failing := s.failures[r.URL.Path]
	s.mu.Unlock()

	if s.APIKey != "" && r.Header.Get("Authorization") != "Bearer "+s.APIKey {
		writeStatus(w, http.StatusUnauthorized)
		return
	}
	if failing {
		writeStatus(w, status)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "docs":
		items := make([]map[string]string, 0, len(s.docs))
		for _, d := range s.docs {
			items = append(items, map[string]string{"id": d.ID, "type": "doc", "name": d.Name})
		}
		s.writeList(w, r, items)
	case len(parts) == 3 && parts[0] == "docs" && parts[2] == "tables":
		doc, ok := s.doc(parts[1])
		if !ok {
			writeStatus(w, http.StatusNotFound)
			return
		}
		items := make([]map[string]string, 0, len(doc.Tables))
		for _, tbl := range doc.Tables {
			items = append(items, map[string]string{"id": tbl.ID, "type": "table", "name": tbl.Name})
		}
		s.writeList(w, r, items)
	case len(parts) == 5 && parts[0] == "docs" && parts[2] == "tables" && parts[4] == "rows":
		tbl, ok := s.table(parts[1], parts[3])
		if !ok {
			writeStatus(w, http.StatusNotFound)
			return
		}
		body := tbl.Rows
		if body == "" {
			body = `{"items":[]}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	default:
		writeStatus(w, http.StatusNotFound)
	}
}

func (s *CodaServer) doc(id string) (FakeDoc, bool) {
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return FakeDoc{}, false
}

func (s *CodaServer) table(docID, tableID string) (FakeTable, bool) {
	doc, ok := s.doc(docID)
	if !ok {
		return FakeTable{}, false
	}
	for _, tbl := range doc.Tables {
		if tbl.ID == tableID {
			return tbl, true
		}
	}
	return FakeTable{}, false
}

func (s *CodaServer) writeList(w http.ResponseWriter, r *http.Request, items []map[string]string) {
	start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if s.PageSize > 0 && start+s.PageSize < end {
		end = start + s.PageSize
	}

	resp := map[string]interface{}{
		"items": items[start:end],
		"href":  r.URL.String(),
	}
	if end < len(items) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"statusCode":` + strconv.Itoa(status) + `,"statusMessage":"` + http.StatusText(status) + `"}`))
}
