package navigator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	nav := NewMemory("")
	assert.Equal(t, "/", nav.Location())

	nav.Navigate("/post/1")
	nav.Navigate(LoginPath)
	assert.Equal(t, LoginPath, nav.Location())
	assert.Equal(t, []string{"/", "/post/1", LoginPath}, nav.History())

	require.NoError(t, nav.OpenExternal(context.Background(), "upi://pay?pa=x"))
	assert.Equal(t, []string{"upi://pay?pa=x"}, nav.External())
	assert.Equal(t, LoginPath, nav.Location(), "external links do not change location")
}

func TestTerminal_PrintsExternalLinks(t *testing.T) {
	var out bytes.Buffer
	nav := NewTerminal(&out)

	require.NoError(t, nav.OpenExternal(context.Background(), "upi://pay?pa=a%40upi"))
	assert.Contains(t, out.String(), "upi://pay?pa=a%40upi")
	assert.Equal(t, []string{"upi://pay?pa=a%40upi"}, nav.External())
}
