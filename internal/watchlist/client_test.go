package watchlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCheckWatchlist(t *testing.T) {
	e := newTestEngine(t, 0)
	c := NewClient(e.http.URL + "/")

	res, err := c.CheckWatchlist(context.Background(), sanctionedETH)
	require.NoError(t, err)
	assert.True(t, res.Sanctioned)
	assert.Equal(t, SourceOFAC, res.Source)

	res, err = c.CheckWatchlist(context.Background(), "0x0000000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.False(t, res.Sanctioned)
}

func TestClientEscapesAddress(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("address")
		w.Write([]byte(`{"sanctioned":false}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CheckWatchlist(context.Background(), "a&b=c")
	require.NoError(t, err)
	assert.Equal(t, "a&b=c", got)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CheckWatchlist(context.Background(), sanctionedETH)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientUnreachable(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").CheckWatchlist(context.Background(), sanctionedETH)
	assert.Error(t, err)
}
