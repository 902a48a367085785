package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

var ErrNotFound = errors.New("address not found")

// Address is the reverse-geocoded location of a complaint photo.
type Address struct {
	Street     string
	Area       string
	PostalCode string
	City       string
	State      string
	Country    string
}

// Geocoder converts GPS coordinates to address components.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// NominatimGeocoder reverse-geocodes against the OpenStreetMap Nominatim API.
// Nominatim's free tier asks for one request per second and an identifying
// User-Agent, so requests are rate limited and results cached per coordinate.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	MaxRetries  int
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string]*Address
}

type nominatimPlace struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "complaint-service/1.0"
	}
	if g.MinInterval <= 0 {
		g.MinInterval = time.Second
	}
	if g.MaxRetries <= 0 {
		g.MaxRetries = 3
	}

	key := fmt.Sprintf("%.6f,%.6f", lat, lon)

	g.mu.Lock()
	if g.cache == nil {
		g.cache = map[string]*Address{}
	}
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	sleepFor := time.Until(g.lastReqAt.Add(g.MinInterval))
	if sleepFor > 0 {
		g.mu.Unlock()
		time.Sleep(sleepFor)
		g.mu.Lock()
	}
	g.lastReqAt = time.Now()
	g.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= g.MaxRetries; attempt++ {
		addr, retryable, err := g.fetch(ctx, lat, lon)
		if err == nil {
			g.mu.Lock()
			g.cache[key] = addr
			g.mu.Unlock()
			return addr, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *NominatimGeocoder) fetch(ctx context.Context, lat, lon float64) (*Address, bool, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%s&lon=%s&format=json&addressdetails=1&accept-language=en",
		g.BaseURL,
		url.QueryEscape(strconv.FormatFloat(lat, 'f', -1, 64)),
		url.QueryEscape(strconv.FormatFloat(lon, 'f', -1, 64)),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("nominatim http error: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var place nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, false, err
	}
	if place.Error != "" || len(place.Address) == 0 {
		return nil, false, ErrNotFound
	}
	return parseAddress(place.Address), false, nil
}

func parseAddress(raw map[string]string) *Address {
	addr := &Address{
		Street:     pickField(raw, "road", "neighbourhood", "suburb", "residential"),
		Area:       pickField(raw, "neighbourhood", "suburb", "city_district", "residential"),
		PostalCode: raw["postcode"],
		City:       raw["city"],
		State:      raw["state"],
		Country:    raw["country"],
	}
	if addr.Area == "" {
		addr.Area = addr.City
	}
	return addr
}

func pickField(raw map[string]string, keys ...string) string {
	for _, key := range keys {
		if raw[key] != "" {
			return raw[key]
		}
	}
	return ""
}
