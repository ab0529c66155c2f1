package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel 可编程的假模型，记录被调用次数
type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in stub")
}

func (s *stubModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return s, nil
}

func TestFallback_FirstProviderWins(t *testing.T) {
	primary := &stubModel{reply: "from gemini"}
	secondary := &stubModel{reply: "from openai"}

	f := NewFallback(
		Provider{Name: "Gemini", Model: primary},
		Provider{Name: "OpenAI", Model: secondary},
	)

	got, err := f.Invoke(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", got)
	assert.Zero(t, secondary.calls)
}

func TestFallback_RemoteFailureMovesOn(t *testing.T) {
	primary := &stubModel{err: errors.New("429 too many requests")}
	secondary := &stubModel{reply: "from openai"}

	f := NewFallback(
		Provider{Name: "Gemini", Model: primary},
		Provider{Name: "OpenAI", Model: secondary},
	)

	got, err := f.Invoke(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from openai", got)
	// 远端限流不原地重试
	assert.Equal(t, 1, primary.calls)
}

func TestFallback_SkipsUnconfigured(t *testing.T) {
	local := &stubModel{reply: "from ollama"}

	f := NewFallback(
		Provider{Name: "Gemini", Model: nil},
		Provider{Name: "OpenAI", Model: nil},
		Provider{Name: "Ollama", Model: local, Local: true},
	)

	got, err := f.Invoke(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from ollama", got)
}

func TestFallback_LocalRetries(t *testing.T) {
	local := &stubModel{err: errors.New("connection refused")}

	f := NewFallback(Provider{Name: "Ollama", Model: local, Local: true})

	_, err := f.Invoke(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, maxAttempts, local.calls)
}

func TestFallback_AllExhausted(t *testing.T) {
	f := NewFallback(
		Provider{Name: "Gemini", Model: &stubModel{err: errors.New("quota exceeded")}},
		Provider{Name: "OpenAI", Model: &stubModel{err: errors.New("boom")}},
	)

	_, err := f.Invoke(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestFallback_NoProviders(t *testing.T) {
	f := NewFallback()
	_, err := f.Invoke(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("usage limit reached")))
	assert.False(t, isRateLimitError(errors.New("connection refused")))
}

func TestFallback_Status(t *testing.T) {
	f := NewFallback(
		Provider{Name: "Gemini", Model: nil},
		Provider{Name: "Ollama", Model: &stubModel{reply: "hi"}, Local: true},
	)
	status := f.Status(context.Background())
	assert.Equal(t, "Not configured", status["Gemini"])
	assert.Equal(t, "Available", status["Ollama"])
}
