package sheerid

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollStopsAtDeadline(t *testing.T) {
	var probes int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&probes, 1)
		fmt.Fprint(w, `{"currentStep":"pending"}`)
	}))
	defer server.Close()

	poller := NewPoller(NewClient(server.URL))
	result, err := poller.Poll(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1", 200*time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.State != PollTimedOut {
		t.Fatalf("expected timeout, got %v", result.State)
	}
	// 200ms window with 50ms intervals allows four probes before the
	// deadline check wins.
	if result.Queries < 3 || result.Queries > 5 {
		t.Errorf("expected 3-5 probes, got %d", result.Queries)
	}
}

func TestPollReturnsSuccess(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			fmt.Fprint(w, `{"currentStep":"pending"}`)
			return
		}
		fmt.Fprint(w, `{"currentStep":"success","rewardCode":"CODE-42","redirectUrl":"https://example.com/claim"}`)
	}))
	defer server.Close()

	poller := NewPoller(NewClient(server.URL))
	result, err := poller.Poll(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1", time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.State != PollSuccess {
		t.Fatalf("expected success, got %v", result.State)
	}
	if result.RewardCode != "CODE-42" {
		t.Errorf("expected reward code, got %q", result.RewardCode)
	}
	if result.RedirectURL != "https://example.com/claim" {
		t.Errorf("expected redirect url, got %q", result.RedirectURL)
	}
}

func TestPollReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"currentStep":"error","errorIds":["notApproved","docRejected"]}`)
	}))
	defer server.Close()

	poller := NewPoller(NewClient(server.URL))
	result, err := poller.Poll(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1", time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.State != PollError {
		t.Fatalf("expected error state, got %v", result.State)
	}
	if len(result.ErrorIDs) != 2 {
		t.Errorf("expected two error ids, got %v", result.ErrorIDs)
	}
}

func TestPollSwallowsTransientFailures(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"currentStep":"success","rewardCode":"AFTER-RETRY"}`)
	}))
	defer server.Close()

	poller := NewPoller(NewClient(server.URL))
	result, err := poller.Poll(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1", time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.State != PollSuccess || result.RewardCode != "AFTER-RETRY" {
		t.Errorf("expected success after a transient failure, got %+v", result)
	}
}

func TestPollHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"currentStep":"pending"}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	poller := NewPoller(NewClient(server.URL))
	_, err := poller.Poll(ctx, "68b1c2d3e4f5a6b7c8d9e0f1", time.Minute, 20*time.Millisecond)
	if err == nil {
		t.Error("expected a cancelled poll to fail")
	}
}

func TestVerificationStatusRewardDataFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"currentStep":"success","rewardData":{"rewardCode":"NESTED-1"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.VerificationStatus(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.RewardCode != "NESTED-1" {
		t.Errorf("expected nested reward code, got %q", status.RewardCode)
	}
	if !status.Terminal() {
		t.Error("expected success to be terminal")
	}
}

func TestVerificationStatusRequestPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"currentStep":"pending"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.VerificationStatus(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1"); err != nil {
		t.Fatalf("status: %v", err)
	}
	want := "/rest/v2/verification/68b1c2d3e4f5a6b7c8d9e0f1"
	if gotPath != want {
		t.Errorf("expected path %s, got %s", want, gotPath)
	}
}
