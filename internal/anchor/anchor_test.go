package anchor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeAnchorer struct {
	mu        sync.Mutex
	calls     int
	failFor   int // fail the first N calls
	txHash    string
	alwaysErr bool
}

func (f *fakeAnchorer) Anchor(_ context.Context, _, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.alwaysErr || f.calls <= f.failFor {
		return "", errors.New("registry unavailable")
	}
	return f.txHash, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	fileID string
	txHash string
	calls  int
}

func (f *fakeRecorder) SetAnchorTx(_ context.Context, fileID, txHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.fileID = fileID
	f.txHash = txHash
	return nil
}

func TestDispatcher_RecordsTxOnSuccess(t *testing.T) {
	t.Parallel()
	a := &fakeAnchorer{txHash: "0xdeadbeef"}
	rec := &fakeRecorder{}
	d := NewDispatcher(a, rec, zap.NewNop(), time.Second, 0)

	d.Dispatch("file-1", "v1.0", "hash-1")
	d.Wait()

	if rec.calls != 1 || rec.fileID != "file-1" || rec.txHash != "0xdeadbeef" {
		t.Fatalf("recorder: %+v", rec)
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	a := &fakeAnchorer{txHash: "0xabc", failFor: 1}
	rec := &fakeRecorder{}
	d := NewDispatcher(a, rec, zap.NewNop(), 5*time.Second, 2)

	d.Dispatch("file-2", "v1.0", "hash-2")
	d.Wait()

	if a.calls != 2 {
		t.Fatalf("calls=%d, want 2", a.calls)
	}
	if rec.txHash != "0xabc" {
		t.Fatalf("tx not recorded after retry: %+v", rec)
	}
}

func TestDispatcher_FailureIsDropped(t *testing.T) {
	t.Parallel()
	a := &fakeAnchorer{alwaysErr: true}
	rec := &fakeRecorder{}
	d := NewDispatcher(a, rec, zap.NewNop(), time.Second, 0)

	d.Dispatch("file-3", "v1.0", "hash-3")
	d.Wait()

	if rec.calls != 0 {
		t.Fatalf("recorder called despite anchoring failure")
	}
}

func TestDispatcher_NoopSkipsRecorder(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	d := NewDispatcher(Noop{}, rec, zap.NewNop(), time.Second, 0)

	d.Dispatch("file-4", "v1.0", "hash-4")
	d.Wait()

	if rec.calls != 0 {
		t.Fatalf("recorder called for empty tx hash")
	}
}

func TestRegistryClient_Anchor(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		var req anchorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.FileID != "file-5" || req.Version != "v1.0" || req.ContentHash != "abc123" {
			t.Errorf("bad request body: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(anchorResponse{TxHash: "0x42"})
	}))
	defer srv.Close()

	c := NewRegistryClient(srv.URL, time.Second)
	tx, err := c.Anchor(context.Background(), "file-5", "v1.0", "abc123")
	if err != nil {
		t.Fatalf("Anchor: %v", err)
	}
	if tx != "0x42" {
		t.Fatalf("txHash=%q, want 0x42", tx)
	}
}

func TestRegistryClient_NonOKStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRegistryClient(srv.URL, time.Second)
	if _, err := c.Anchor(context.Background(), "f", "v1.0", "h"); err == nil {
		t.Fatalf("want error for 502 response")
	}
}
