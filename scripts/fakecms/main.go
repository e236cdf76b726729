// Fake CMS for exercising pubpulse locally: an authoring API whose
// mutations surface on the delivery side after a fixed publish delay.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// node is one authored content record.
type node struct {
	ID       string `json:"id"`
	PagePath string `json:"pagePath"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Context  string `json:"context,omitempty"`
}

// store holds authored nodes and the delayed delivery surface.
type store struct {
	mu    sync.Mutex
	delay time.Duration
	seq   int
	nodes map[string]node // authored state by node id
	pages map[string]node // published state by page path
}

// upsert stores the authored node, filling unset content fields, and
// schedules its publication after the configured delay.
func (s *store) upsert(n node) node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.PagePath == "" {
		n.PagePath = "/nodes/" + n.ID + ".html"
	}
	if n.Selector == "" {
		n.Selector = "#content"
	}
	if n.Value == "" {
		s.seq++
		n.Value = fmt.Sprintf("v-%d", s.seq)
	}
	s.nodes[n.ID] = n

	published := n
	time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.pages[published.PagePath] = published
		s.mu.Unlock()
	})
	return n
}

// remove deletes the authored node and schedules its page's removal.
func (s *store) remove(id string) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	delete(s.nodes, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.pages, n.PagePath)
		s.mu.Unlock()
	})
}

func (s *store) page(path string) (node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.pages[path]
	return n, ok
}

func (s *store) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var n node
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil || n.ID == "" {
		http.Error(w, "bad node body", http.StatusBadRequest)
		return
	}
	n = s.upsert(n)
	log.Printf("create %s -> %s %s=%s", n.ID, n.PagePath, n.Selector, n.Value)
	writeNode(w, http.StatusCreated, n)
}

func (s *store) handleNode(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/nodes/")
	if id == "" {
		http.Error(w, "node id required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var n node
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			http.Error(w, "bad node body", http.StatusBadRequest)
			return
		}
		n.ID = id
		n = s.upsert(n)
		log.Printf("update %s -> %s %s=%s", n.ID, n.PagePath, n.Selector, n.Value)
		writeNode(w, http.StatusOK, n)
	case http.MethodDelete:
		s.remove(id)
		log.Printf("delete %s", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *store) handlePage(w http.ResponseWriter, r *http.Request) {
	n, ok := s.page(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate,
		html.EscapeString(n.ID), html.EscapeString(divID(n.Selector)), html.EscapeString(n.Value))
}

func writeNode(w http.ResponseWriter, status int, n node) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(n)
}

// divID derives the rendered element id from a CSS id selector.
func divID(selector string) string {
	if strings.HasPrefix(selector, "#") {
		return selector[1:]
	}
	return "content"
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<div id="%s">%s</div>
</body>
</html>
`

func main() {
	addr := flag.String("addr", ":9080", "listen address")
	delay := flag.Duration("delay", 2*time.Second, "delay between an accepted mutation and delivery visibility")
	flag.Parse()

	s := &store{
		delay: *delay,
		nodes: make(map[string]node),
		pages: make(map[string]node),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes", s.handleCreate)
	mux.HandleFunc("/api/nodes/", s.handleNode)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	mux.HandleFunc("/", s.handlePage)

	log.Printf("fake CMS listening on %s (publish delay %s)", *addr, *delay)
	log.Printf("authoring: POST /api/nodes, PUT/DELETE /api/nodes/{id}")
	log.Printf("delivery:  GET /nodes/{id}.html")

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
