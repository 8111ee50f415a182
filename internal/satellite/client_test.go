package satellite

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"starhawk-api-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_ForwardsBodyAndKey(t *testing.T) {
	var gotPath, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"sceneID":"S2A"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.SatelliteConfig{EOSBaseURL: srv.URL + "/", EOSAPIKey: "k1"})
	out, err := c.Search(context.Background(), []byte(`{"search":{"cloudCoverage":{"to":20}}}`))
	require.NoError(t, err)

	assert.Equal(t, searchPath, gotPath)
	assert.Equal(t, "k1", gotKey)
	assert.JSONEq(t, `{"search":{"cloudCoverage":{"to":20}}}`, gotBody)
	assert.JSONEq(t, `{"results":[{"sceneID":"S2A"}]}`, string(out))
}

func TestStatistics_RelaysUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, statisticsPath, r.URL.Path)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient(config.SatelliteConfig{EOSBaseURL: srv.URL, EOSAPIKey: "k"})
	_, err := c.Statistics(context.Background(), []byte(`{}`))

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, `{"error":"quota exceeded"}`, string(upstream.Body))
}

func TestWeather_ForwardsQuery(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"temp":21.5}`))
	}))
	defer srv.Close()

	c := NewClient(config.SatelliteConfig{WeatherBaseURL: srv.URL + "/data/2.5/weather?units=metric", WeatherAPIKey: "wk"})
	out, err := c.Weather(context.Background(), url.Values{"lat": {"-1.5"}, "lon": {"29.6"}})
	require.NoError(t, err)

	assert.Equal(t, "-1.5", got.Get("lat"))
	assert.Equal(t, "29.6", got.Get("lon"))
	assert.Equal(t, "metric", got.Get("units"))
	assert.Equal(t, "wk", got.Get("appid"))
	assert.JSONEq(t, `{"temp":21.5}`, string(out))
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.SatelliteConfig{})
	_, err := c.Search(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Weather(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(config.SatelliteConfig{EOSBaseURL: srv.URL, EOSAPIKey: "k"})
	_, err := c.Search(context.Background(), []byte(`{}`))
	require.Error(t, err)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestNonJSONSuccessBecomesString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(config.SatelliteConfig{EOSBaseURL: srv.URL, EOSAPIKey: "k"})
	out, err := c.Search(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(out))
}
