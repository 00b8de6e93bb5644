package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpserver "lpstays/internal/adapters/http_server"
	"lpstays/internal/app"
	"lpstays/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	opt, err := app.NewOptimizer(domain.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Opt: opt})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestGetTiers(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/tiers")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Tiers []struct {
			Threshold  int    `json:"threshold"`
			Multiplier string `json:"multiplier"`
		} `json:"tiers"`
		CardDelta string `json:"card_bonus_delta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Tiers) != 2 || body.Tiers[0].Threshold != 60_000 || body.Tiers[1].Threshold != 100_000 {
		t.Fatalf("tiers: %+v", body.Tiers)
	}
	if body.CardDelta != "0.1" {
		t.Fatalf("card delta %q", body.CardDelta)
	}
}

func TestOptimize_HappyPath(t *testing.T) {
	ts := newTestServer(t)
	req := `{
		"offers": [
			{"hotel_id":"A","hotel_name":"Alpha","date":"2026-09-01","price":"100","base_points":1000},
			{"hotel_id":"B","hotel_name":"Bravo","date":"2026-09-02","price":"150","base_points":2500},
			{"hotel_id":"C","hotel_name":"Charlie","date":"2026-09-03","price":"80","base_points":500}
		],
		"config": {"target_points": 3000},
		"strategy": "exact_dp"
	}`
	resp := postJSON(t, ts.URL+"/v1/optimize", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Outcome   string `json:"outcome"`
		Itinerary struct {
			Stays []struct {
				HotelID         string `json:"hotel_id"`
				EffectivePoints int    `json:"effective_points"`
				CumulativeAfter int    `json:"cumulative_after"`
			} `json:"stays"`
			TotalCost   string `json:"total_cost"`
			TotalPoints int    `json:"total_points_earned"`
		} `json:"itinerary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Outcome != "target_met" {
		t.Fatalf("outcome %q", body.Outcome)
	}
	// B+C lands exactly on the target for $230, cheaper than overshooting with A+B
	if len(body.Itinerary.Stays) != 2 || body.Itinerary.Stays[0].HotelID != "B" || body.Itinerary.Stays[1].HotelID != "C" {
		t.Fatalf("stays: %+v", body.Itinerary.Stays)
	}
	if body.Itinerary.Stays[1].CumulativeAfter != 3000 {
		t.Fatalf("final balance %d, want 3000", body.Itinerary.Stays[1].CumulativeAfter)
	}
	if body.Itinerary.TotalCost != "230" || body.Itinerary.TotalPoints != 3000 {
		t.Fatalf("totals: %s / %d", body.Itinerary.TotalCost, body.Itinerary.TotalPoints)
	}
}

func TestOptimize_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"unknown strategy", `{"offers":[],"config":{"target_points":100},"strategy":"simulated_annealing"}`},
		{"invalid config", `{"offers":[],"config":{"target_points":0},"strategy":"exact_dp"}`},
		{"bad offer date", `{"offers":[{"hotel_id":"x","date":"09/01/2026","price":"10","base_points":10}],"config":{"target_points":100},"strategy":"exact_dp"}`},
		{"malformed json", `{"offers":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/v1/optimize", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("content type %q", ct)
			}
			var p struct {
				Title  string `json:"title"`
				Status int    `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				t.Fatal(err)
			}
			if p.Status != http.StatusBadRequest || p.Title == "" {
				t.Fatalf("problem body: %+v", p)
			}
		})
	}
}

func TestPlan_UnavailableWithoutClient(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/v1/plan", `{"place_id":"p","from":"2026-09-01","to":"2026-09-07","config":{"target_points":100},"strategy":"exact_dp"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
