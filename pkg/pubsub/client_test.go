package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tortasnery/storefront/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/orders", topicResourceName("p1", "orders"))
	assert.Equal(t, "projects/other/topics/x", topicResourceName("p1", "projects/other/topics/x"))
	assert.Empty(t, topicResourceName("", "orders"))
	assert.Empty(t, topicResourceName("p1", "  "))
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "t"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil)
	assert.ErrorIs(t, err, errNoTopic)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	_, err := c.PublishOrders(context.Background(), []byte("x"), nil)
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestClientOptionsPrecedence(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p"}))
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/secrets/sa.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/x"}), 1)
}
