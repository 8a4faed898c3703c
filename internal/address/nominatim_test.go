package address

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipam-rir/rir-manager/internal/httpclient"
)

func TestNominatimReverse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "39.78", r.URL.Query().Get("lat"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"house_number":"1","road":"Main Street","town":"Springfield",
			"state":"Illinois","ISO3166-2-lvl4":"US-IL","postcode":"62701","country_code":"us"}}`))
	}))
	t.Cleanup(srv.Close)

	geo := NewNominatim(srv.URL, httpclient.NewDefaultClient())
	addr, err := geo.Reverse(context.Background(), 39.78, -89.65)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, "1 Main Street", addr.Street)
	assert.Equal(t, "Springfield", addr.City)
	assert.Equal(t, "IL", addr.StateProvince)
	assert.Equal(t, "62701", addr.PostalCode)
	assert.Equal(t, "US", addr.Country)
}

func TestNominatimSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		switch r.URL.Query().Get("q") {
		case "nowhere":
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`[{"address":{"road":"Queen St W","city":"Toronto","state":"Ontario","country_code":"ca"}}]`))
		}
	}))
	t.Cleanup(srv.Close)

	geo := NewNominatim(srv.URL+"/", httpclient.NewDefaultClient())

	addr, err := geo.Search(context.Background(), "100 Queen St W")
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, "Queen St W", addr.Street)
	assert.Equal(t, "Ontario", addr.StateProvince)
	assert.Equal(t, "CA", addr.Country)

	addr, err = geo.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestNominatimHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := NewNominatim(srv.URL, httpclient.NewDefaultClient()).Search(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, httpclient.StatusCode(err))
}
