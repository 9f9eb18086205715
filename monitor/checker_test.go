package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hazyhaar/rankwatch/serp"
)

func TestCheckerSubstringMatch(t *testing.T) {
	// WHAT: The domain matches anywhere in the raw link, including the
	// path, with no URL normalisation.
	// WHY: Documented matching policy; permissive by design until revised.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(
			serp.OrganicResult{Position: 1, Link: "https://unrelated.com/", Title: "U"},
			serp.OrganicResult{Position: 7, Link: "https://shop.example.com/dataget.ai/page", Title: "S", Snippet: "snip"},
		), nil
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"dataget.ai"}, nil)

	obs := m.checkDomainRanking(context.Background(), "k", "dataget.ai")
	if !obs.Found {
		t.Fatal("expected found=true for path-substring match")
	}
	if obs.Position == nil || *obs.Position != 7 {
		t.Errorf("position: got %v, want 7", obs.Position)
	}
	if obs.Link == nil || *obs.Link != "https://shop.example.com/dataget.ai/page" {
		t.Errorf("link: got %v", obs.Link)
	}
	if obs.Title == nil || *obs.Title != "S" {
		t.Errorf("title: got %v", obs.Title)
	}
	if obs.Snippet == nil || *obs.Snippet != "snip" {
		t.Errorf("snippet: got %v", obs.Snippet)
	}
	if obs.TotalResults == nil || *obs.TotalResults != 128000 {
		t.Errorf("total_results: got %v", obs.TotalResults)
	}
}

func TestCheckerFirstMatchWins(t *testing.T) {
	// WHAT: With several matching results the earliest provider-reported
	// one is kept.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(
			serp.OrganicResult{Position: 2, Link: "https://d.com/first"},
			serp.OrganicResult{Position: 9, Link: "https://d.com/second"},
		), nil
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, nil)

	obs := m.checkDomainRanking(context.Background(), "k", "d.com")
	if obs.Position == nil || *obs.Position != 2 {
		t.Errorf("position: got %v, want 2 (first match)", obs.Position)
	}
}

func TestCheckerDomainNotInResults(t *testing.T) {
	// WHAT: No matching link yields a not-found observation with the
	// provider's total_results and all ranking fields nil.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(serp.OrganicResult{Position: 1, Link: "https://other.com/"}), nil
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, nil)

	obs := m.checkDomainRanking(context.Background(), "k", "d.com")
	if obs.Found {
		t.Fatal("expected found=false")
	}
	if obs.Position != nil || obs.Link != nil || obs.Title != nil || obs.Snippet != nil {
		t.Error("not-found observation must have nil position/link/title/snippet")
	}
	if obs.TotalResults == nil || *obs.TotalResults != 128000 {
		t.Errorf("total_results: got %v", obs.TotalResults)
	}
}

func TestCheckerEmptyResults(t *testing.T) {
	// WHAT: Zero organic results still carry metadata when present.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(), nil
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, nil)

	obs := m.checkDomainRanking(context.Background(), "k", "d.com")
	if obs.Found {
		t.Fatal("expected found=false")
	}
	if obs.TotalResults == nil || *obs.TotalResults != 128000 {
		t.Errorf("total_results: got %v", obs.TotalResults)
	}
}

func TestCheckerProbeFailureDegrades(t *testing.T) {
	// WHAT: A prober error is absorbed into a not-found observation with
	// nil total_results; it never propagates.
	// WHY: A provider outage must not crash the checking loop.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return nil, errors.New("connection refused")
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, nil)

	obs := m.checkDomainRanking(context.Background(), "k", "d.com")
	if obs.Found {
		t.Fatal("expected found=false")
	}
	if obs.TotalResults != nil {
		t.Errorf("total_results: got %v, want nil", obs.TotalResults)
	}
	if obs.Keyword != "k" || obs.Domain != "d.com" {
		t.Errorf("key fields: %+v", obs)
	}
}

func TestCheckerRecordsSearchParams(t *testing.T) {
	// WHAT: The observation carries the exact parameters used, for
	// reproducibility.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(), nil
	})
	m, _ := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, map[string]string{"gl": "fr"})

	obs := m.checkDomainRanking(context.Background(), "k", "d.com")

	var params map[string]string
	if err := json.Unmarshal([]byte(obs.SearchParamsJSON), &params); err != nil {
		t.Fatalf("search params not valid JSON: %v", err)
	}
	if params["gl"] != "fr" || params["engine"] != "google" {
		t.Errorf("params: got %v", params)
	}
}

func TestCheckerDoesNotWrite(t *testing.T) {
	// WHAT: The checker alone leaves the store untouched; persisting is
	// the cycle's job.
	prober := proberFunc(func(ctx context.Context, query string, params map[string]string) (*serp.Response, error) {
		return respWith(serp.OrganicResult{Position: 1, Link: "https://d.com/"}), nil
	})
	m, st := newTestMonitor(t, prober, Config{})
	m.Configure([]string{"k"}, []string{"d.com"}, nil)

	m.checkDomainRanking(context.Background(), "k", "d.com")

	obs, err := st.Latest(context.Background(), "k", "d.com")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if obs != nil {
		t.Error("checker wrote to the store")
	}
}
