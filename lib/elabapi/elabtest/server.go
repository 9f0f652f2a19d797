// Package elabtest provides an in-memory eLabFTW api for tests.
package elabtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
)

const ApiKey = "test-api-key"

type Entity struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Category int64   `json:"category"`
	CustomID *int64  `json:"custom_id"`
	Metadata *string `json:"metadata"`
}

type ItemsType struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// Server is a fake instance rooted at URL + "/api/v2". it is safe to
// inspect between requests.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextId      int64
	items       map[int64]*Entity
	experiments map[int64]*Entity
	itemsTypes  []ItemsType
	requests    []Request
	// paths answering with the given status code
	fail map[string]int
}

func NewServer(t testing.TB) *Server {
	s := &Server{
		nextId:      100,
		items:       map[int64]*Entity{},
		experiments: map[int64]*Entity{},
		fail:        map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/items_types", s.readItemsTypes)
	mux.HandleFunc("GET /api/v2/items", s.readItems)
	mux.HandleFunc("GET /api/v2/items/{id}", s.get(func() map[int64]*Entity { return s.items }))
	mux.HandleFunc("GET /api/v2/experiments/{id}", s.get(func() map[int64]*Entity { return s.experiments }))
	mux.HandleFunc("POST /api/v2/items", s.post("items", func() map[int64]*Entity { return s.items }))
	mux.HandleFunc("POST /api/v2/experiments", s.post("experiments", func() map[int64]*Entity { return s.experiments }))
	mux.HandleFunc("PATCH /api/v2/items/{id}", s.patch(func() map[int64]*Entity { return s.items }))
	mux.HandleFunc("PATCH /api/v2/experiments/{id}", s.patch(func() map[int64]*Entity { return s.experiments }))

	s.Server = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) BaseUrl() string {
	return s.URL + "/api/v2"
}

func (s *Server) AddItemsType(id int64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsTypes = append(s.itemsTypes, ItemsType{ID: id, Title: title})
}

func (s *Server) AddItem(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = &e
}

func (s *Server) AddExperiment(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[e.ID] = &e
}

// SetFail makes `path` answer with `status` until cleared with status 0.
func (s *Server) SetFail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, path)
		return
	}
	s.fail[path] = status
}

func (s *Server) Item(id int64) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

func (s *Server) Experiment(id int64) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.experiments[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// RequestsMatching returns the recorded requests with the given method.
func (s *Server) RequestsMatching(method string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJson(w, status, map[string]any{
		"code":        status,
		"message":     http.StatusText(status),
		"description": description,
	})
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != ApiKey {
			writeError(w, http.StatusUnauthorized, "No API key provided or invalid key.")
			return
		}

		req := Request{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPatch) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			req.Body = body
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		status, fail := s.fail[r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeError(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) readItemsTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]ItemsType{}, s.itemsTypes...)
	writeJson(w, http.StatusOK, out)
}

func (s *Server) readItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, _ := strconv.ParseInt(r.URL.Query().Get("cat"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 15
	}

	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []Entity{}
	for _, id := range ids {
		item := s.items[id]
		if cat != 0 && item.Category != cat {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, *item)
	}
	writeJson(w, http.StatusOK, out)
}

func pathId(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (s *Server) get(store func() map[int64]*Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		id, ok := pathId(r)
		entity, found := store()[id]
		if !ok || !found {
			writeError(w, http.StatusNotFound, "Nothing to show with this id")
			return
		}
		writeJson(w, http.StatusOK, entity)
	}
}

func (s *Server) post(resource string, store func() map[int64]*Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.nextId++
		entity := &Entity{ID: s.nextId, Title: "Untitled"}
		last := s.requests[len(s.requests)-1]
		if cat, ok := last.Body["category_id"].(float64); ok {
			entity.Category = int64(cat)
		}
		store()[entity.ID] = entity

		w.Header().Set("Location", fmt.Sprintf("%s/api/v2/%s/%d", s.URL, resource, entity.ID))
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) patch(store func() map[int64]*Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		id, ok := pathId(r)
		entity, found := store()[id]
		if !ok || !found {
			writeError(w, http.StatusNotFound, "Nothing to show with this id")
			return
		}

		body := s.requests[len(s.requests)-1].Body
		if title, ok := body["title"].(string); ok {
			entity.Title = title
		}
		if text, ok := body["body"].(string); ok {
			entity.Body = text
		}
		if metadata, ok := body["metadata"].(string); ok {
			entity.Metadata = &metadata
		}
		if customId, ok := body["custom_id"].(string); ok {
			parsed, err := strconv.ParseInt(customId, 10, 64)
			if err == nil {
				entity.CustomID = &parsed
			}
		}
		writeJson(w, http.StatusOK, entity)
	}
}
