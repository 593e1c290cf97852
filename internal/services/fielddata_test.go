package services

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"quantumfield-backend/internal/models"
)

const spaceWeatherBody = `[
	{"time_tag": "2026-08-29T11:58:00", "bx_gsm": 5, "by_gsm": 0, "bz_gsm": 0, "bt": 10},
	{"time_tag": "2026-08-29T11:59:00", "bx_gsm": 10, "by_gsm": 0, "bz_gsm": 0, "bt": 10}
]`

const geomagBody = `{"values": [{"time": "2026-08-29T11:59:00", "x": 0, "y": 20, "z": 0, "f": 20}]}`

func TestCombineWeightsBothSources(t *testing.T) {
	space := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(spaceWeatherBody))
	}))
	defer space.Close()

	geomag := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "BOU" {
			t.Errorf("Expected observatory BOU, got %q", r.URL.Query().Get("id"))
		}
		w.Write([]byte(geomagBody))
	}))
	defer geomag.Close()

	svc := NewFieldDataService(space.URL, geomag.URL)
	data := svc.Combine(context.Background())

	// 10*0.4 + 20*0.6
	if math.Abs(data.Strength-16) > 1e-9 {
		t.Errorf("Expected combined strength 16, got %v", data.Strength)
	}

	// normalize(0.4*[1,0,0] + 0.6*[0,1,0])
	wantX := 0.4 / math.Hypot(0.4, 0.6)
	wantY := 0.6 / math.Hypot(0.4, 0.6)
	if math.Abs(data.Direction[0]-wantX) > 1e-9 || math.Abs(data.Direction[1]-wantY) > 1e-9 {
		t.Errorf("Unexpected combined direction: %v", data.Direction)
	}

	if len(data.Sources) != 2 {
		t.Errorf("Expected both sources recorded, got %v", data.Sources)
	}
}

func TestCombineFallsBackToSingleSource(t *testing.T) {
	space := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer space.Close()

	geomag := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geomagBody))
	}))
	defer geomag.Close()

	svc := NewFieldDataService(space.URL, geomag.URL)
	data := svc.Combine(context.Background())

	if data.Strength != 20 {
		t.Errorf("Expected geomag strength 20, got %v", data.Strength)
	}
	if data.Direction != (models.Vec3{0, 1, 0}) {
		t.Errorf("Expected normalized geomag direction, got %v", data.Direction)
	}
}

func TestCombineFallsBackToSimulated(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	svc := NewFieldDataService(down.URL, down.URL)
	data := svc.Combine(context.Background())

	if data.Strength != 45.7 {
		t.Errorf("Expected simulated strength 45.7, got %v", data.Strength)
	}
	if data.Direction != simulatedDirection {
		t.Errorf("Expected simulated direction, got %v", data.Direction)
	}
	if len(data.Sources) != 1 || data.Sources[0] != "simulated" {
		t.Errorf("Expected simulated source tag, got %v", data.Sources)
	}
}

func TestCombineCachesReadings(t *testing.T) {
	var hits int
	space := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(spaceWeatherBody))
	}))
	defer space.Close()

	geomag := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geomagBody))
	}))
	defer geomag.Close()

	svc := NewFieldDataService(space.URL, geomag.URL)
	svc.Combine(context.Background())
	svc.Combine(context.Background())

	if hits != 1 {
		t.Errorf("Expected one upstream fetch, got %d", hits)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize(models.Vec3{0, 0, 0}); got != (models.Vec3{1, 0, 0}) {
		t.Errorf("Zero vector should normalize to x-axis, got %v", got)
	}
	if got := normalize(models.Vec3{0, 3, 4}); math.Abs(got[1]-0.6) > 1e-12 || math.Abs(got[2]-0.8) > 1e-12 {
		t.Errorf("Unexpected normalization: %v", got)
	}
}
