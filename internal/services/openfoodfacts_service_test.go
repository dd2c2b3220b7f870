package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ustock-backend/internal/config"
)

func newTestOFFClient(t *testing.T, handler http.HandlerFunc) *OpenFoodFactsClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenFoodFactsClient(config.OpenFoodFactsConfig{
		BaseURL:   server.URL,
		UserAgent: "UStock-Test/1.0",
		Timeout:   200 * time.Millisecond,
	})
}

func TestOpenFoodFactsLookup(t *testing.T) {
	client := newTestOFFClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003.json", r.URL.Path)
		assert.Equal(t, "UStock-Test/1.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{
			"status": 1,
			"product": {
				"code": "3017620422003",
				"product_name": " Nutella ",
				"brands": "Ferrero",
				"quantity": "400 g",
				"nutriscore_grade": "e",
				"image_front_url": "https://images.example.org/front.jpg",
				"image_url": "https://images.example.org/any.jpg",
				"categories": "Spreads, Sweet spreads, Hazelnut spreads"
			}
		}`)
	})

	info, err := client.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, "Nutella", info.Name)
	assert.Equal(t, "Ferrero", info.Brand)
	assert.Equal(t, "400 g", info.ContentSize)
	assert.Equal(t, "e", info.Nutriscore)
	assert.Equal(t, "https://images.example.org/front.jpg", info.ImageURL)
	assert.Equal(t, "Spreads", info.Category)
}

func TestOpenFoodFactsLookupFallsBackToImageURL(t *testing.T) {
	client := newTestOFFClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": 1, "product": {"product_name": "Milk", "image_url": "https://images.example.org/milk.jpg"}}`)
	})

	info, err := client.Lookup(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.org/milk.jpg", info.ImageURL)
	assert.Empty(t, info.Brand)
}

func TestOpenFoodFactsLookupErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "unknown barcode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status": 0, "status_verbose": "product not found"}`)
			},
			want: ErrNotFound,
		},
		{
			name: "http 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: ErrNotFound,
		},
		{
			name: "product without name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status": 1, "product": {"brands": "Ferrero"}}`)
			},
			want: ErrNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: ErrUpstreamUnavailable,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>maintenance</html>`)
			},
			want: ErrUpstreamUnavailable,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(500 * time.Millisecond)
				fmt.Fprint(w, `{"status": 1, "product": {"product_name": "Late"}}`)
			},
			want: ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestOFFClient(t, tt.handler)

			info, err := client.Lookup(context.Background(), "3017620422003")
			assert.Nil(t, info)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenFoodFactsSearch(t *testing.T) {
	client := newTestOFFClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pâte à tartiner", q.Get("search_terms"))
		assert.Equal(t, "1", q.Get("json"))
		assert.Equal(t, "10", q.Get("page_size"))

		fmt.Fprint(w, `{"products": [`)
		for i := 0; i < 12; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"code": "%d", "product_name": "Spread %d", "brands": "Brand", "nutriscore_grade": "d"}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	})

	hits, err := client.Search(context.Background(), "pâte à tartiner", 50)
	require.NoError(t, err)
	require.Len(t, hits, MaxSearchResults)
	assert.Equal(t, "0", hits[0].Barcode)
	assert.Equal(t, "Spread 0", hits[0].ProductName)
	assert.Equal(t, "d", hits[0].Nutriscore)
}

func TestOpenFoodFactsSearchUpstreamFailure(t *testing.T) {
	client := newTestOFFClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	hits, err := client.Search(context.Background(), "milk", 5)
	assert.Nil(t, hits)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFirstCategory(t *testing.T) {
	assert.Equal(t, "Dairies", firstCategory("Dairies, Milks"))
	assert.Equal(t, "", firstCategory(""))
	assert.Equal(t, "Snacks", firstCategory(" Snacks "))
}
