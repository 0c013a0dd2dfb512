package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kinoshelf/internal/domain"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *discordWebhook) {
	t.Helper()
	got := &discordWebhook{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestDiscordSendSuccess(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	d := NewDiscordService(zerolog.Nop(), srv.URL)

	err := d.SendSuccess(context.Background(), domain.SyncStatistics{
		TotalMovies:  40,
		TotalPages:   3,
		PagesFetched: 2,
		PagesFailed:  []int{2},
	})
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Kinoshelf Sync Completed With Errors", embed.Title)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "40", values["Movies"])
	assert.Equal(t, "2 of 3 fetched", values["Pages"])
	assert.Equal(t, "2", values["Failed Pages"])
}

func TestDiscordSendError(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)
	d := NewDiscordService(zerolog.Nop(), srv.URL)

	require.NoError(t, d.SendError(context.Background(), errors.New("unauthorized")))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Kinoshelf Sync Failed", got.Embeds[0].Title)
	assert.Contains(t, got.Embeds[0].Description, "unauthorized")
}

func TestDiscordNon2xx(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	d := NewDiscordService(zerolog.Nop(), srv.URL)

	err := d.SendSuccess(context.Background(), domain.SyncStatistics{TotalMovies: 1})
	assert.Error(t, err)
}

func TestServiceWithoutWebhookIsNoop(t *testing.T) {
	s := NewService(zerolog.Nop(), "")
	assert.NoError(t, s.SendSuccess(context.Background(), domain.SyncStatistics{}))
	assert.NoError(t, s.SendError(context.Background(), errors.New("x")))
}
