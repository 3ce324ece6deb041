package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutridive/nutridive/pkg/apperrors"
)

const nutellaResponse = `{
  "code": "3017620422003",
  "status": 1,
  "status_verbose": "product found",
  "product": {
    "code": "3017620422003",
    "product_name": "Nutella",
    "brands": "Ferrero",
    "quantity": "400 g",
    "ingredients_text": "Sugar, palm oil, hazelnuts 13%, skimmed milk powder 8.7%",
    "ingredients": [{"id": "en:sugar", "text": "Sugar"}],
    "nutriments": {"energy-kcal_100g": 539, "sugars_100g": 56.3},
    "categories": "Spreads, Sweet spreads",
    "labels": "Gluten-free",
    "nutriscore_grade": "e",
    "nova_group": 4
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}, zaptest.NewLogger(t))
	return client, server
}

func TestFetchProduct_Success(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nutellaResponse))
	})

	product, err := client.FetchProduct(context.Background(), "3017620422003")
	require.NoError(t, err)

	assert.Equal(t, "Nutella", product.Name)
	assert.Equal(t, "Ferrero", product.Brand)
	assert.Equal(t, "Spreads, Sweet spreads", product.Categories)
	assert.Len(t, product.Ingredients, 1)
	assert.Equal(t, 56.3, product.Nutriments["sugars_100g"])

	snap := product.Snapshot("3017620422003")
	assert.Equal(t, "4", snap.NovaGroup)
	assert.Equal(t, []string{"Spreads", "Sweet spreads"}, snap.Categories)
}

func TestFetchProduct_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status flag zero", http.StatusOK, `{"code": "0000", "status": 0, "status_verbose": "product not found"}`},
		{"status flag as string", http.StatusOK, `{"status": "0"}`},
		{"missing product", http.StatusOK, `{"status": 1}`},
		{"http 404", http.StatusNotFound, `{"status": 0}`},
		{"http 500", http.StatusInternalServerError, `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchProduct(context.Background(), "0000")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		})
	}
}

func TestFetchProduct_TransportFailure(t *testing.T) {
	client, server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.FetchProduct(context.Background(), "0000")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFetchProduct_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()
	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))

	_, err := client.FetchProduct(context.Background(), "0000")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestFetchProduct_InvalidJSON(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.FetchProduct(context.Background(), "0000")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestFetchProduct_OversizedBody(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": 1, "product": {"product_name": "`))
		_, _ = w.Write([]byte(strings.Repeat("x", maxBodyBytes)))
		_, _ = w.Write([]byte(`"}}`))
	})

	_, err := client.FetchProduct(context.Background(), "3017620422003")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, zaptest.NewLogger(t))
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}
