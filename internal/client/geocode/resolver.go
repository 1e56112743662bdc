package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	NominatimURL    = "https://nominatim.openstreetmap.org"
	BigDataCloudURL = "https://api.bigdatacloud.net"

	userAgent    = "HoaxBuster-CLI/1.0"
	maxBodyBytes = 1 << 20
	// Nominatim's usage policy allows at most one request per second.
	nominatimInterval = time.Second
)

var ErrNoResult = errors.New("no place name for coordinates")

// Resolver turns coordinates into a place name.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim queries the OpenStreetMap reverse geocoder.
type Nominatim struct {
	hc      *http.Client
	baseURL string
	limiter *rate.Limiter
}

func NewNominatim(hc *http.Client, baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = NominatimURL
	}
	return &Nominatim{
		hc:      hc,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(nominatimInterval), 1),
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimResponse struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error"`
}

func (n *Nominatim) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", coord(lat))
	q.Set("lon", coord(lon))
	q.Set("zoom", "16")
	q.Set("addressdetails", "1")

	var resp nominatimResponse
	if err := getJSON(ctx, n.hc, n.baseURL+"/reverse?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNoResult, resp.Error)
	}
	name := FormatName(resp.Address, resp.DisplayName)
	if name == "" {
		return "", ErrNoResult
	}
	return name, nil
}

// BigDataCloud queries the keyless client-side reverse geocoding endpoint.
type BigDataCloud struct {
	hc      *http.Client
	baseURL string
}

func NewBigDataCloud(hc *http.Client, baseURL string) *BigDataCloud {
	if baseURL == "" {
		baseURL = BigDataCloudURL
	}
	return &BigDataCloud{hc: hc, baseURL: baseURL}
}

func (b *BigDataCloud) Name() string { return "bigdatacloud" }

type bigDataCloudResponse struct {
	Locality             string `json:"locality"`
	City                 string `json:"city"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

func (b *BigDataCloud) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("latitude", coord(lat))
	q.Set("longitude", coord(lon))
	q.Set("localityLanguage", "en")

	var resp bigDataCloudResponse
	if err := getJSON(ctx, b.hc, b.baseURL+"/data/reverse-geocode-client?"+q.Encode(), &resp); err != nil {
		return "", err
	}

	addr := Address{Suburb: resp.Locality, City: firstNonEmpty(resp.City, resp.PrincipalSubdivision)}
	name := FormatName(addr, resp.CountryName)
	if name == "" {
		return "", ErrNoResult
	}
	return name, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func getJSON(ctx context.Context, hc *http.Client, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reverse geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
