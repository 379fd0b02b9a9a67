package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilegift/internal/observability"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	_, ok := r.Last()
	assert.False(t, ok)

	r.Success("saved")
	r.Error("failed")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Notification{Level: LevelError, Message: "failed"}, last)
	assert.Len(t, r.Drain(), 2)
	assert.Empty(t, r.All())
}

func TestMulti_FansOut(t *testing.T) {
	var out bytes.Buffer
	r := NewRecorder()
	n := Multi{r, NewWriter(&out)}

	n.Info("hello")
	assert.Equal(t, []Notification{{Level: LevelInfo, Message: "hello"}}, r.All())
	assert.Equal(t, "i hello\n", out.String())
}

func TestLog_WritesToGlobalLogger(t *testing.T) {
	previous := observability.GlobalLogger
	defer func() { observability.GlobalLogger = previous }()

	var buf bytes.Buffer
	observability.ConfigureLogger(&buf, "info", "json")

	Log{}.Error("Failed to like post")
	assert.Contains(t, buf.String(), `"message":"Failed to like post"`)
	assert.Contains(t, buf.String(), `"kind":"error"`)
}
