package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"quantumfield-backend/internal/metrics"
	"quantumfield-backend/internal/models"
)

// Weights applied when both observatory sources respond.
const (
	spaceWeatherWeight = 0.4
	geomagWeight       = 0.6
)

var simulatedDirection = models.Vec3{0.707, 0.0, 0.707}

// FieldDataService fetches real-time magnetic field readings from public
// observatory APIs and combines them into one reading. Every failure path
// degrades to the next source; the final fallback is a fixed simulated
// reading, so Combine never fails an optimization run.
type FieldDataService struct {
	spaceWeatherURL string
	geomagURL       string
	httpClient      *http.Client
	cache           *expirable.LRU[string, models.FieldData]
}

func NewFieldDataService(spaceWeatherURL, geomagURL string) *FieldDataService {
	return &FieldDataService{
		spaceWeatherURL: spaceWeatherURL,
		geomagURL:       geomagURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		// Source data updates at one-minute cadence; cache matches it.
		cache: expirable.NewLRU[string, models.FieldData](8, nil, time.Minute),
	}
}

type spaceWeatherReading struct {
	TimeTag string      `json:"time_tag"`
	Bx      json.Number `json:"bx_gsm"`
	By      json.Number `json:"by_gsm"`
	Bz      json.Number `json:"bz_gsm"`
	Bt      json.Number `json:"bt"`
}

type geomagValue struct {
	Time string      `json:"time"`
	X    json.Number `json:"x"`
	Y    json.Number `json:"y"`
	Z    json.Number `json:"z"`
	F    json.Number `json:"f"`
}

type geomagResponse struct {
	Values []geomagValue `json:"values"`
}

// Combine merges the reachable sources into one weighted reading. With one
// source down the other is used alone; with both down the simulated reading
// is returned.
func (s *FieldDataService) Combine(ctx context.Context) models.FieldData {
	if cached, ok := s.cache.Get("combined"); ok {
		return cached
	}

	space, spaceErr := s.fetchSpaceWeather(ctx)
	geomag, geomagErr := s.fetchGeomag(ctx)

	var data models.FieldData
	switch {
	case spaceErr == nil && geomagErr == nil:
		metrics.FieldDataFetchesTotal.WithLabelValues("combined").Inc()
		data = combineReadings(space, geomag)
	case spaceErr == nil:
		metrics.FieldDataFetchesTotal.WithLabelValues("partial").Inc()
		data = space
	case geomagErr == nil:
		metrics.FieldDataFetchesTotal.WithLabelValues("partial").Inc()
		data = geomag
	default:
		metrics.FieldDataFetchesTotal.WithLabelValues("simulated").Inc()
		return s.Simulated()
	}

	s.cache.Add("combined", data)
	return data
}

// Simulated returns the fixed fallback reading used when no observatory is
// reachable.
func (s *FieldDataService) Simulated() models.FieldData {
	return models.FieldData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Strength:  45.7,
		Direction: simulatedDirection,
		Sources:   []string{"simulated"},
	}
}

func (s *FieldDataService) fetchSpaceWeather(ctx context.Context) (models.FieldData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.spaceWeatherURL, nil)
	if err != nil {
		return models.FieldData{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.FieldData{}, fmt.Errorf("space weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FieldData{}, fmt.Errorf("space weather source returned status %d", resp.StatusCode)
	}

	var readings []spaceWeatherReading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return models.FieldData{}, fmt.Errorf("failed to decode space weather data: %w", err)
	}
	if len(readings) == 0 {
		return models.FieldData{}, fmt.Errorf("no space weather data available")
	}

	// Most recent measurement is last.
	latest := readings[len(readings)-1]
	bx, _ := latest.Bx.Float64()
	by, _ := latest.By.Float64()
	bz, _ := latest.Bz.Float64()
	bt, _ := latest.Bt.Float64()

	return models.FieldData{
		Timestamp: latest.TimeTag,
		Strength:  bt,
		Direction: normalize(models.Vec3{bx, by, bz}),
		Sources:   []string{"NOAA SWPC"},
	}, nil
}

func (s *FieldDataService) fetchGeomag(ctx context.Context) (models.FieldData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.geomagURL, nil)
	if err != nil {
		return models.FieldData{}, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	q := req.URL.Query()
	q.Set("id", "BOU")
	q.Set("starttime", today)
	q.Set("endtime", today)
	q.Set("elements", "X,Y,Z,F")
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.FieldData{}, fmt.Errorf("geomag request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FieldData{}, fmt.Errorf("geomag source returned status %d", resp.StatusCode)
	}

	var parsed geomagResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.FieldData{}, fmt.Errorf("failed to decode geomag data: %w", err)
	}
	if len(parsed.Values) == 0 {
		return models.FieldData{}, fmt.Errorf("no geomagnetic data available")
	}

	latest := parsed.Values[len(parsed.Values)-1]
	x, _ := latest.X.Float64()
	y, _ := latest.Y.Float64()
	z, _ := latest.Z.Float64()
	f, _ := latest.F.Float64()

	return models.FieldData{
		Timestamp: latest.Time,
		Strength:  f,
		Direction: normalize(models.Vec3{x, y, z}),
		Sources:   []string{"USGS BOU"},
	}, nil
}

func combineReadings(space, geomag models.FieldData) models.FieldData {
	var dir models.Vec3
	for axis := 0; axis < 3; axis++ {
		dir[axis] = space.Direction[axis]*spaceWeatherWeight + geomag.Direction[axis]*geomagWeight
	}

	return models.FieldData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Strength:  space.Strength*spaceWeatherWeight + geomag.Strength*geomagWeight,
		Direction: normalize(dir),
		Sources:   append(append([]string{}, space.Sources...), geomag.Sources...),
	}
}

func normalize(v models.Vec3) models.Vec3 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return models.Vec3{1, 0, 0}
	}
	return models.Vec3{v[0] / n, v[1] / n, v[2] / n}
}
