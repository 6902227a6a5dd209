package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

func TestFactoryDefaults(t *testing.T) {
	client := NewFactory(Options{}).CreateDefaultClient()
	assert.Equal(t, 60*time.Second, client.Timeout)
}

func TestCreateClientSetsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(utils.HeaderUserAgent)
	}))
	defer server.Close()

	client := NewFactory(Options{}).CreateClient(Options{Timeout: time.Second, UserAgent: "wheelctl/1.0"})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "wheelctl/1.0", got)
	assert.Equal(t, time.Second, client.Timeout)
}
