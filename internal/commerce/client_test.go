package commerce_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand/internal/commerce"
)

func TestCreateCharge(t *testing.T) {
	var got commerce.ChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-CC-Api-Key"))
		assert.Equal(t, commerce.APIVersion, r.Header.Get("X-CC-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"data":{"id":"chg_123","code":"ABCD","hosted_url":"https://commerce.example/pay/ABCD"}}`))
	}))
	defer srv.Close()

	c := commerce.NewClient(srv.URL+"/", "test-key", time.Second)
	charge, err := c.CreateCharge(context.Background(), commerce.ChargeRequest{
		Name:        "Secondhand Store Purchase",
		Description: "p1(1)",
		PricingType: commerce.PricingFixed,
		LocalPrice:  commerce.Money{Amount: "12.99", Currency: "USD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "chg_123", charge.ID)
	assert.Equal(t, "https://commerce.example/pay/ABCD", charge.HostedURL)
	assert.Equal(t, "12.99", got.LocalPrice.Amount)
	assert.Equal(t, "fixed_price", got.PricingType)
}

func TestCreateChargeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request","message":"local_price is invalid"}}`))
	}))
	defer srv.Close()

	_, err := commerce.NewClient(srv.URL, "k", time.Second).CreateChargeRaw(context.Background(), []byte(`{}`))
	var up *commerce.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, http.StatusBadRequest, up.Status)
	assert.Contains(t, up.Error(), "local_price is invalid")
}

func TestCreateChargeWithoutKeyMakesNoCall(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	_, err := commerce.NewClient(srv.URL, "", time.Second).CreateChargeRaw(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, commerce.ErrMissingAPIKey)
	assert.Equal(t, 0, hits)
}

func TestCreateChargeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := commerce.NewClient(srv.URL, "k", 20*time.Millisecond).CreateChargeRaw(context.Background(), []byte(`{}`))
	require.Error(t, err)
	var up *commerce.UpstreamError
	assert.False(t, errors.As(err, &up))
}

func TestUpstreamErrorWithoutBody(t *testing.T) {
	e := &commerce.UpstreamError{Status: 502}
	assert.Equal(t, "HTTP error! status: 502", e.Error())
}
