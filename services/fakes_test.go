package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/baaten/partner_console/models"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

// fakePartnerServer is an in-memory Partner API
type fakePartnerServer struct {
	*httptest.Server

	mu            sync.Mutex
	partners      map[string]models.Partner
	calls         []string // "METHOD id" in arrival order
	statusUpdates []map[string]interface{}
	failDelete    bool
	failPatch     bool
	lastForm      map[string][]string
	lastFiles     map[string]string // field -> filename
}

func newFakePartnerServer(t *testing.T, partners ...models.Partner) *fakePartnerServer {
	t.Helper()
	f := &fakePartnerServer{partners: map[string]models.Partner{}}
	for _, p := range partners {
		f.partners[p.ID] = p
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakePartnerServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/partners" && r.Method == http.MethodGet {
		f.calls = append(f.calls, "LIST")
		ids := make([]string, 0, len(f.partners))
		for id := range f.partners {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		list := make([]models.Partner, 0, len(ids))
		for _, id := range ids {
			list = append(list, f.partners[id])
		}
		writeJSON(w, http.StatusOK, models.PartnerPage{Partners: list, Pagination: models.Pagination{Total: len(list)}})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/partners/")
	f.calls = append(f.calls, r.Method+" "+id)
	p, ok := f.partners[id]

	switch r.Method {
	case http.MethodGet:
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"partner": p})
	case http.MethodPatch:
		if f.failPatch {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			f.lastForm = r.MultipartForm.Value
			f.lastFiles = map[string]string{}
			for field, headers := range r.MultipartForm.File {
				f.lastFiles[field] = headers[0].Filename
			}
			if names := r.MultipartForm.Value["name"]; len(names) > 0 {
				p.Name = names[0]
			}
			f.partners[id] = p
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.statusUpdates = append(f.statusUpdates, body)
		if s, ok := body["status"].(string); ok {
			p.Status = models.PartnerStatus(s)
		}
		f.partners[id] = p
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "partner": p})
	case http.MethodDelete:
		if f.failDelete {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		delete(f.partners, id)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePartnerServer) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePartnerServer) statusUpdateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusUpdates)
}

func (f *fakePartnerServer) partner(id string) (models.Partner, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	return p, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeMedia records the urls it was asked for
type fakeMedia struct {
	mu         sync.Mutex
	avatarURLs []string
	sampleURLs []string
	avatarErr  error
}

func (m *fakeMedia) FetchAvatar(ctx context.Context, rawURL string) (*models.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatarURLs = append(m.avatarURLs, rawURL)
	if m.avatarErr != nil {
		return nil, m.avatarErr
	}
	return &models.MediaFile{Filename: "avatar.jpg", ContentType: "image/jpeg", Data: []byte("jpeg"), SourceURL: rawURL}, nil
}

func (m *fakeMedia) FetchSample(ctx context.Context, rawURL string) (*models.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleURLs = append(m.sampleURLs, rawURL)
	return &models.MediaFile{Filename: "intro.mp3", ContentType: "audio/mpeg", Data: []byte("mp3"), SourceURL: rawURL}, nil
}

// fakeOnboarder answers with a fixed success flag
type fakeOnboarder struct {
	mu      sync.Mutex
	success bool
	subs    []*models.OnboardingSubmission
	tokens  []string
}

func (o *fakeOnboarder) Submit(ctx context.Context, token string, sub *models.OnboardingSubmission) (*models.OnboardingResponse, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, sub)
	o.tokens = append(o.tokens, token)
	if !o.success {
		return &models.OnboardingResponse{Success: false, Message: "phone already exists"}, ErrOnboardingRejected
	}
	return &models.OnboardingResponse{Success: true}, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.Transition
}

func (r *fakeRecorder) Record(ctx context.Context, t *models.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *t)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event models.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (n *fakeNotifier) BroadcastTransition(event models.TransitionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// memoryCache is a ListCache backed by a map, with the same generation
// semantics as the Redis cache
type memoryCache struct {
	mu          sync.Mutex
	gen         int64
	pages       map[[3]int64]*models.PartnerPage
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: map[[3]int64]*models.PartnerPage{}}
}

func (c *memoryCache) Get(ctx context.Context, page, limit int) (*models.PartnerPage, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[[3]int64{c.gen, int64(page), int64(limit)}]
	return p, c.gen, ok
}

func (c *memoryCache) Set(ctx context.Context, gen int64, page, limit int, result *models.PartnerPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[[3]int64{gen, int64(page), int64(limit)}] = result
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.invalidated++
	return nil
}

func testLogger() *zap.Logger { return zap.NewNop() }
