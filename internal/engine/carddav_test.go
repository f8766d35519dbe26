package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
)

func TestCardDAVSource_DiscoveryFailure(t *testing.T) {
	var gotUser string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	src := engine.CardDAVSource{URL: ts.URL, Username: "alice", Password: "secret", DefaultDays: 30}
	contacts, err := src.Contacts(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrCardDAVDiscover)
	assert.Nil(t, contacts)
	assert.Equal(t, "alice", gotUser, "credentials must be sent with discovery requests")
}

func TestCardDAVSource_InvalidURL(t *testing.T) {
	src := engine.CardDAVSource{URL: "://bad", DefaultDays: 30}
	_, err := src.Contacts(context.Background())
	assert.Error(t, err)
}
