package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ipam-rir/rir-manager/internal/httpclient"
	"github.com/ipam-rir/rir-manager/internal/models"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim is a Geocoder backed by the Nominatim JSON API.
type Nominatim struct {
	baseURL string
	client  httpclient.Client
}

var _ Geocoder = (*Nominatim)(nil)

// NewNominatim creates a geocoder. An empty baseURL uses DefaultNominatimURL.
func NewNominatim(baseURL string, client httpclient.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &Nominatim{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type nominatimPlace struct {
	Address struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Province    string `json:"province"`
		StateCode   string `json:"ISO3166-2-lvl4"`
		Postcode    string `json:"postcode"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (p *nominatimPlace) toAddress() *models.Address {
	a := p.Address
	country := strings.ToUpper(a.CountryCode)

	state := a.State
	if state == "" {
		state = a.Province
	}
	// ISO3166-2-lvl4 is "US-NY"; keep the subdivision part
	if _, sub, ok := strings.Cut(a.StateCode, "-"); ok && sub != "" {
		state = sub
	}

	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}

	return &models.Address{
		Street:        strings.TrimSpace(a.HouseNumber + " " + a.Road),
		City:          city,
		StateProvince: state,
		PostalCode:    a.Postcode,
		Country:       country,
	}
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")
	resp, err := n.client.Do(ctx, httpclient.Request{
		URL:    n.baseURL + path + "?" + params.Encode(),
		Accept: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query nominatim: %w", err)
	}
	return resp.Body, nil
}

// Reverse implements Geocoder
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*models.Address, error) {
	body, err := n.get(ctx, "/reverse", url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	})
	if err != nil {
		return nil, err
	}

	var place nominatimPlace
	if err := json.Unmarshal(body, &place); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if place.Address.CountryCode == "" {
		return nil, nil
	}
	return place.toAddress(), nil
}

// Search implements Geocoder
func (n *Nominatim) Search(ctx context.Context, query string) (*models.Address, error) {
	body, err := n.get(ctx, "/search", url.Values{
		"q":     {query},
		"limit": {"1"},
	})
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}
	return places[0].toAddress(), nil
}
