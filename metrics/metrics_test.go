package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Step(true)
	m.Step(false)
	m.Step(true)
	m.Epoch(1, 60, 55.5)
	m.Test(51)
	m.ExamplesRead(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Steps.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("undone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Epochs))
	assert.Equal(t, 55.5, testutil.ToFloat64(m.Accuracy.WithLabelValues("validation")))
	assert.Equal(t, 51.0, testutil.ToFloat64(m.Accuracy.WithLabelValues("test")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Examples))

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.Epoch(1, 10, 20)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `objtrain_accuracy_percent{split="validation"} 20`))
}

func TestServer(t *testing.T) {
	s, err := Listen("127.0.0.1:0", prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	s.Serve()
	resp, err := http.Get("http://" + s.Addr() + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, s.Shutdown(context.Background()))
}
