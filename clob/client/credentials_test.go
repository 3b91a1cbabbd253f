package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
	"github.com/polyterm/polyterm/internal/mockexchange"
)

func newTestClient(t *testing.T, host string, store *wallet.Store) *Client {
	t.Helper()
	id, err := wallet.Validate(builderTestKey)
	if err != nil {
		t.Fatalf("validate key: %v", err)
	}
	c, err := NewClient(host, types.ChainPolygon, id, store, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestCredentialBroker_DeriveOnce(t *testing.T) {
	ex := mockexchange.New()
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)

	creds, err := c.Broker().FetchOrCreate(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if creds.Key != "derived-key" || creds.Secret != mockexchange.TestSecret {
		t.Fatalf("bad creds: %+v", creds)
	}
	if n := ex.DeriveCount.Load(); n != 1 {
		t.Fatalf("derive called %d times", n)
	}
	if n := ex.CreateCount.Load(); n != 0 {
		t.Fatalf("create called %d times", n)
	}

	// 缓存命中不再走网络
	if _, err := c.Broker().FetchOrCreate(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n := ex.DeriveCount.Load(); n != 1 {
		t.Fatalf("cache miss: derive called %d times", n)
	}
}

func TestCredentialBroker_ConcurrentSingleFlight(t *testing.T) {
	ex := mockexchange.New()
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)

	const callers = 16
	results := make([]*types.ApiKeyCreds, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creds, err := c.Broker().FetchOrCreate(context.Background())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = creds
		}(i)
	}
	wg.Wait()

	if n := ex.DeriveCount.Load(); n != 1 {
		t.Fatalf("expected exactly 1 derive call, got %d", n)
	}
	for i, r := range results {
		if r == nil || r.Key != results[0].Key {
			t.Fatalf("caller %d got different creds: %+v", i, r)
		}
	}
}

func TestCredentialBroker_FallbackToCreate(t *testing.T) {
	ex := mockexchange.New()
	ex.Derive = mockexchange.Response{Status: 500, Body: gin.H{"error": "boom"}}
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)

	creds, err := c.Broker().FetchOrCreate(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if creds.Key != "created-key" {
		t.Fatalf("expected created creds, got %+v", creds)
	}
	if ex.DeriveCount.Load() != 1 || ex.CreateCount.Load() != 1 {
		t.Fatalf("derive=%d create=%d", ex.DeriveCount.Load(), ex.CreateCount.Load())
	}
}

func TestCredentialBroker_IncompleteDeriveFallsBack(t *testing.T) {
	ex := mockexchange.New()
	// 2xx 但缺 passphrase：同样退回 create，且只退一次
	ex.Derive = mockexchange.Response{Body: gin.H{"apiKey": "k", "secret": mockexchange.TestSecret}}
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)

	creds, err := c.Broker().FetchOrCreate(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if creds.Key != "created-key" {
		t.Fatalf("expected created creds, got %+v", creds)
	}
	if ex.CreateCount.Load() != 1 {
		t.Fatalf("create called %d times", ex.CreateCount.Load())
	}
}

func TestCredentialBroker_StoreSeedSkipsNetwork(t *testing.T) {
	ex := mockexchange.New()
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	store := wallet.NewStore(filepath.Join(t.TempDir(), "wallet.json"))
	id, _ := wallet.Validate(builderTestKey)
	if err := store.SaveIdentity(id); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	saved := &types.ApiKeyCreds{Key: "stored-key", Secret: mockexchange.TestSecret, Passphrase: "stored-pass"}
	if err := store.SaveCreds(saved); err != nil {
		t.Fatalf("save creds: %v", err)
	}

	c := newTestClient(t, ts.URL, store)
	creds, err := c.Broker().FetchOrCreate(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if creds.Key != "stored-key" {
		t.Fatalf("expected stored creds, got %+v", creds)
	}
	if ex.DeriveCount.Load() != 0 || ex.CreateCount.Load() != 0 {
		t.Fatal("store-seeded creds should not hit the network")
	}
}

func TestCredentialBroker_PersistsToStore(t *testing.T) {
	ex := mockexchange.New()
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	store := wallet.NewStore(filepath.Join(t.TempDir(), "wallet.json"))
	id, _ := wallet.Validate(builderTestKey)
	if err := store.SaveIdentity(id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	c := newTestClient(t, ts.URL, store)
	if _, err := c.Broker().FetchOrCreate(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Creds == nil || rec.Creds.Key != "derived-key" {
		t.Fatalf("creds not persisted: %+v", rec.Creds)
	}
}

func TestCredentialBroker_Invalidate(t *testing.T) {
	ex := mockexchange.New()
	ts := httptest.NewServer(ex.Router())
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)
	if _, err := c.Broker().FetchOrCreate(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c.Broker().Invalidate()
	if _, err := c.Broker().FetchOrCreate(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n := ex.DeriveCount.Load(); n != 2 {
		t.Fatalf("expected re-derive after invalidate, derive=%d", n)
	}
}
