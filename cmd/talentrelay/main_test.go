package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameehj/talentrelay/pkg/backend/mock"
	"github.com/sameehj/talentrelay/pkg/backend/openai"
	"github.com/sameehj/talentrelay/pkg/config"
	"github.com/sameehj/talentrelay/pkg/dialog"
	"github.com/sameehj/talentrelay/pkg/relay"
)

func TestNewBackendDefaultsToOpenAI(t *testing.T) {
	b, err := newBackend(config.AssistantConfig{APIKey: "sk-test", AssistantID: "asst_1"})
	require.NoError(t, err)
	assert.IsType(t, &openai.Backend{}, b)
}

func TestNewBackendMock(t *testing.T) {
	b, err := newBackend(config.AssistantConfig{Provider: "mock", MockReply: "hi"})
	require.NoError(t, err)
	assert.IsType(t, &mock.Backend{}, b)
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := newBackend(config.AssistantConfig{Provider: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown assistant provider")
}

func TestRunAskPrintsReply(t *testing.T) {
	var out bytes.Buffer
	r := relay.New(mock.New("We have three open roles"), relay.Options{})
	require.NoError(t, runAsk(context.Background(), r, "What roles are open?", &out))
	assert.Equal(t, "We have three open roles\n", out.String())
}

func TestRunAskFallback(t *testing.T) {
	var out bytes.Buffer
	r := relay.New(mock.New(""), relay.Options{})
	require.NoError(t, runAsk(context.Background(), r, "anything", &out))
	assert.Equal(t, dialog.FallbackReply+"\n", out.String())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(unset)", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "sk-…1234", maskSecret("sk-proj-abcdefgh1234"))
}
