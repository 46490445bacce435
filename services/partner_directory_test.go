package services

import (
	"context"
	"sync"
	"testing"

	"github.com/baaten/partner_console/models"
)

// gatedPartnerAPI serves ListPartners from a snapshot taken on entry and,
// while gate is set, holds the answer until the gate closes
type gatedPartnerAPI struct {
	PartnerAPI

	mu       sync.Mutex
	partners []models.Partner
	calls    int
	entered  chan struct{}
	gate     chan struct{}
}

func (a *gatedPartnerAPI) ListPartners(ctx context.Context, page, limit int) (*models.PartnerPage, error) {
	a.mu.Lock()
	a.calls++
	snapshot := append([]models.Partner(nil), a.partners...)
	entered, gate := a.entered, a.gate
	a.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return &models.PartnerPage{Partners: snapshot, Pagination: models.Pagination{Total: len(snapshot), Page: page, Limit: limit}}, nil
}

func (a *gatedPartnerAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func TestDirectoryServesCachedPage(t *testing.T) {
	api := &gatedPartnerAPI{partners: []models.Partner{{ID: "p1"}}}
	dir := NewPartnerDirectory(api, newMemoryCache(), testLogger())

	for i := 0; i < 3; i++ {
		page, err := dir.List(context.Background(), 1, 10)
		if err != nil {
			t.Fatal(err)
		}
		if !page.Contains("p1") {
			t.Errorf("page = %+v", page)
		}
	}
	if n := api.callCount(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	if _, err := dir.Refresh(context.Background(), 1, 10); err != nil {
		t.Fatal(err)
	}
	if n := api.callCount(); n != 2 {
		t.Errorf("upstream calls after refresh = %d, want 2", n)
	}
}

func TestDirectoryDropsPageFetchedAcrossInvalidate(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	api := &gatedPartnerAPI{
		partners: []models.Partner{{ID: "p1"}, {ID: "p2"}},
		entered:  entered,
		gate:     gate,
	}
	dir := NewPartnerDirectory(api, newMemoryCache(), testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := dir.List(context.Background(), 1, 10); err != nil {
			t.Errorf("in-flight List: %v", err)
		}
	}()
	<-entered

	// p1 is rejected and deleted while the first fetch is still in flight
	api.mu.Lock()
	api.partners = []models.Partner{{ID: "p2"}}
	api.entered, api.gate = nil, nil
	api.mu.Unlock()
	dir.Invalidate(context.Background())

	close(gate)
	<-done

	page, err := dir.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Contains("p1") {
		t.Error("rejected partner served from a page fetched before the invalidation")
	}
	if n := api.callCount(); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
}
