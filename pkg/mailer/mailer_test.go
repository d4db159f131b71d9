package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/logger"
)

func TestSendGridPostsOnePersonalizationPerRecipient(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendPath, r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSendGrid(config.SendgridConfig{
		APIKey:      "SG.test",
		DefaultFrom: "pedidos@tortasnery.com",
		FromName:    "Tortas Nery",
		BaseURL:     srv.URL,
	}, srv.Client())

	err := sender.Send(context.Background(), Message{
		To:      []string{"Ana@Example.com", "admin@tortasnery.com", "ana@example.com"},
		Subject: "Confirmación de Pedido #123456 - Tortas Nery",
		HTML:    "<p>hola</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.test", auth)
	require.Len(t, got.Personalizations, 2)
	assert.Equal(t, "ana@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "Tortas Nery", got.From.Name)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/html", got.Content[0].Type)
}

func TestSendGridReturnsProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewSendGrid(config.SendgridConfig{APIKey: "x", BaseURL: srv.URL}, srv.Client())
	err := sender.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "s", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestBuildRequestValidatesMessage(t *testing.T) {
	_, err := buildRequest(address{}, Message{To: []string{"a@b.com"}, HTML: "x"})
	assert.Error(t, err)
	_, err = buildRequest(address{}, Message{To: []string{" "}, Subject: "s", HTML: "x"})
	assert.Error(t, err)
	_, err = buildRequest(address{}, Message{To: []string{"a@b.com"}, Subject: "s"})
	assert.Error(t, err)
}

func TestNewFallsBackToLogSender(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	sender := New(config.SendgridConfig{}, logg)
	_, ok := sender.(*LogSender)
	require.True(t, ok)

	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "hola"}))
	assert.Contains(t, buf.String(), "mailer.skipped_no_provider")
	assert.Contains(t, buf.String(), "hola")
}
