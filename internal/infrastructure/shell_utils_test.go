package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape_Plain(t *testing.T) {
	assert.Equal(t, "yt-dlp", ShellEscape("yt-dlp"))
	assert.Equal(t, "137+140", ShellEscape("137+140"))
	assert.Equal(t, "''", ShellEscape(""))
}

func TestShellEscape_Special(t *testing.T) {
	assert.Equal(t, "'a b'", ShellEscape("a b"))
	assert.Equal(t, "'%(title)s.%(ext)s'", ShellEscape("%(title)s.%(ext)s"))
	assert.Equal(t, `'it'"'"'s'`, ShellEscape("it's"))
}

func TestShellEscapeCommand(t *testing.T) {
	cmd := ShellEscapeCommand("yt-dlp", "-f", "best[height<=720]", "https://example.com/v?a=1&b=2")
	assert.Equal(t, "yt-dlp -f 'best[height<=720]' 'https://example.com/v?a=1&b=2'", cmd)
}
