package desec

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

const testToken = "test-token"

// cannedResponse overrides the next answer for one route.
type cannedResponse struct {
	status     int
	retryAfter string
	body       string
}

// fakeDesec is a minimal in-memory deSEC API for testing.
type fakeDesec struct {
	mu     sync.Mutex
	zones  map[string]int      // zone name -> minimum_ttl
	rrsets map[string][]string // zone + "/" + subname -> TXT records
	canned map[string][]cannedResponse
	calls  []string // "route METHOD path" in order
	writes []rrsetBody
}

func newFakeDesec() *fakeDesec {
	return &fakeDesec{
		zones:  map[string]int{},
		rrsets: map[string][]string{},
		canned: map[string][]cannedResponse{},
	}
}

// Route names used by enqueue and countCalls.
const (
	routeZones = "zones"
	routeRead  = "read"
	routeWrite = "write"
)

func (f *fakeDesec) addZone(name string, minimumTTL int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zones[name] = minimumTTL
}

func (f *fakeDesec) setTXT(zone, subname string, records ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rrsets[zone+"/"+subname] = records
}

func (f *fakeDesec) txt(zone, subname string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.rrsets[zone+"/"+subname]...)
	sort.Strings(out)
	return out
}

func (f *fakeDesec) enqueue(route string, responses ...cannedResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canned[route] = append(f.canned[route], responses...)
}

func (f *fakeDesec) countCalls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, route+" ") {
			n++
		}
	}
	return n
}

func (f *fakeDesec) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDesec) lastWrite() (rrsetBody, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return rrsetBody{}, false
	}
	return f.writes[len(f.writes)-1], true
}

func (f *fakeDesec) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Token "+testToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"detail": "Unsupported media type."})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	var route string
	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "domains":
		route = routeZones
	case r.Method == http.MethodGet && len(parts) == 5 && parts[0] == "domains" && parts[2] == "rrsets":
		route = routeRead
	case r.Method == http.MethodPut && len(parts) == 3 && parts[0] == "domains" && parts[2] == "rrsets":
		route = routeWrite
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, route+" "+r.Method+" "+r.URL.RequestURI())
	var canned *cannedResponse
	if q := f.canned[route]; len(q) > 0 {
		canned = &q[0]
		f.canned[route] = q[1:]
	}
	f.mu.Unlock()

	if canned != nil {
		if canned.retryAfter != "" {
			w.Header().Set("Retry-After", canned.retryAfter)
		}
		w.WriteHeader(canned.status)
		io.WriteString(w, canned.body)
		return
	}

	switch route {
	case routeZones:
		f.handleZones(w, r)
	case routeRead:
		f.handleRead(w, parts[1], parts[3])
	case routeWrite:
		f.handleWrite(w, r, parts[1])
	}
}

func (f *fakeDesec) handleZones(w http.ResponseWriter, r *http.Request) {
	qname := strings.ToLower(r.URL.Query().Get("owns_qname"))

	f.mu.Lock()
	defer f.mu.Unlock()
	best := ""
	for name := range f.zones {
		if (qname == name || strings.HasSuffix(qname, "."+name)) && len(name) > len(best) {
			best = name
		}
	}
	rows := []zoneRow{}
	if best != "" {
		rows = append(rows, zoneRow{Name: best, MinimumTTL: f.zones[best]})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (f *fakeDesec) handleRead(w http.ResponseWriter, zone, subname string) {
	if subname == "@" {
		subname = ""
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	records, ok := f.rrsets[zone+"/"+subname]
	if _, known := f.zones[zone]; !known || !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, rrsetBody{Subname: subname, Type: "TXT", TTL: f.zones[zone], Records: records})
}

func (f *fakeDesec) handleWrite(w http.ResponseWriter, r *http.Request, zone string) {
	var body []rrsetBody
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, &body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, known := f.zones[zone]; !known {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	for _, rr := range body {
		f.writes = append(f.writes, rr)
		key := zone + "/" + rr.Subname
		if len(rr.Records) == 0 {
			delete(f.rrsets, key)
			continue
		}
		f.rrsets[key] = rr.Records
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// recordingSleeper collects requested waits instead of sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

// newTestProvider starts a fake deSEC and returns a provider pointed at it.
func newTestProvider(t *testing.T) (*Provider, *fakeDesec, *recordingSleeper) {
	t.Helper()
	fake := newFakeDesec()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	sleeper := &recordingSleeper{}
	p, err := New(logr.Discard(), Config{
		Endpoint:   srv.URL + "/api/v1/",
		Token:      testToken,
		HTTPClient: srv.Client(),
		Sleep:      sleeper.sleep,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return p, fake, sleeper
}
