package infrastructure

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func TestClassifyEngineOutput_FormatUnavailable(t *testing.T) {
	engErr := classifyEngineOutput("ERROR: [youtube] abc: Requested format is not available. Use --list-formats", errors.New("exit status 1"))
	assert.Equal(t, domain.FailureFormatUnavailable, engErr.Kind)
	assert.False(t, engErr.Unclassified)
	assert.Contains(t, engErr.Detail, "Requested format is not available")
}

func TestClassifyEngineOutput_Transient(t *testing.T) {
	cases := []string{
		"ERROR: unable to download video data: The read operation timed out",
		"ERROR: Connection reset by peer",
		"ERROR: [youtube] abc: HTTP Error 503: Service Unavailable",
		"ERROR: HTTP Error 429: Too Many Requests",
		"ERROR: Temporary failure in name resolution",
	}
	for _, stderr := range cases {
		engErr := classifyEngineOutput(stderr, errors.New("exit status 1"))
		assert.Equal(t, domain.FailureTransient, engErr.Kind, stderr)
		assert.False(t, engErr.Unclassified, stderr)
	}
}

func TestClassifyEngineOutput_Fatal(t *testing.T) {
	cases := []string{
		"ERROR: [youtube] abc: Sign in to confirm your age",
		"ERROR: [youtube] abc: Private video. Sign in if you've been granted access",
		"ERROR: [youtube] abc: Video unavailable",
		"ERROR: This video has been removed by the uploader",
		"ERROR: HTTP Error 404: Not Found",
		"ERROR: unable to write file: [Errno 28] No space left on device",
		"ERROR: Unsupported URL: https://example.com/page",
	}
	for _, stderr := range cases {
		engErr := classifyEngineOutput(stderr, errors.New("exit status 1"))
		assert.Equal(t, domain.FailureFatal, engErr.Kind, stderr)
	}
}

func TestClassifyEngineOutput_UnknownIsUnclassifiedTransient(t *testing.T) {
	engErr := classifyEngineOutput("ERROR: something the pattern table has never seen", errors.New("exit status 1"))
	assert.Equal(t, domain.FailureTransient, engErr.Kind)
	assert.True(t, engErr.Unclassified)
}

func TestClassifyEngineOutput_EmptyStderrFallsBackToExitError(t *testing.T) {
	engErr := classifyEngineOutput("", errors.New("exit status 1"))
	assert.Equal(t, "exit status 1", engErr.Detail)
	assert.True(t, engErr.Unclassified)
}

func TestFirstStderrLine_PrefersErrorLine(t *testing.T) {
	stderr := "WARNING: some deprecation notice\nERROR: the actual failure\nmore context"
	assert.Equal(t, "ERROR: the actual failure", firstStderrLine(stderr))
}

func TestFirstStderrLine_FallsBackToFirstNonEmpty(t *testing.T) {
	stderr := "\n\nWARNING: only warnings here\n"
	assert.Equal(t, "WARNING: only warnings here", firstStderrLine(stderr))
}

func TestNormalizeFormat_Kinds(t *testing.T) {
	combined := normalizeFormat(rawFormat{FormatID: "22", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 720, Protocol: "https"}, nil)
	assert.Equal(t, domain.KindCombined, combined.Kind)
	assert.Equal(t, domain.TransportProgressive, combined.Transport)
	assert.Equal(t, 720, combined.Height)

	videoOnly := normalizeFormat(rawFormat{FormatID: "137", VCodec: "avc1", ACodec: "none", Height: 1080}, nil)
	assert.Equal(t, domain.KindVideoOnly, videoOnly.Kind)

	audioOnly := normalizeFormat(rawFormat{FormatID: "140", VCodec: "none", ACodec: "mp4a"}, nil)
	assert.Equal(t, domain.KindAudioOnly, audioOnly.Kind)
}

func TestNormalizeFormat_AdaptiveTransport(t *testing.T) {
	hls := normalizeFormat(rawFormat{FormatID: "hls-720", VCodec: "avc1", ACodec: "mp4a", Height: 720, Protocol: "m3u8_native"}, nil)
	assert.Equal(t, domain.TransportAdaptive, hls.Transport)

	dash := normalizeFormat(rawFormat{FormatID: "dash-1", VCodec: "vp9", ACodec: "none", Protocol: "http_dash_segments"}, nil)
	assert.Equal(t, domain.TransportAdaptive, dash.Transport)
}

func TestNormalizeFormat_KeepsRawPayload(t *testing.T) {
	raw := json.RawMessage(`{"format_id":"22","filesize":12345}`)
	entry := normalizeFormat(rawFormat{FormatID: "22"}, raw)
	assert.JSONEq(t, string(raw), string(entry.Extra))
}

func TestProbePayloadDecoding(t *testing.T) {
	data := []byte(`{
		"title": "clip",
		"uploader": "someone",
		"duration": 42.5,
		"formats": [
			{"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a", "tbr": 129.5, "protocol": "https"},
			{"format_id": "137", "ext": "mp4", "vcodec": "avc1", "acodec": "none", "height": 1080, "protocol": "https"},
			{"format_id": "22", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a", "height": 720, "protocol": "https"}
		]
	}`)

	var payload probePayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "clip", payload.Title)
	assert.Len(t, payload.Formats, 3)

	var rf rawFormat
	require.NoError(t, json.Unmarshal(payload.Formats[1], &rf))
	assert.Equal(t, "137", rf.FormatID)
	assert.Equal(t, 1080, rf.Height)
}

func TestBuildDownloadArgs(t *testing.T) {
	eng := NewYTDLPEngine(&domain.EngineConfig{
		Binary:          "yt-dlp",
		FFmpegBinary:    "ffmpeg",
		SocketTimeout:   30 * time.Second,
		FragmentRetries: 5,
		WriteSubtitles:  true,
		WriteThumbnail:  true,
	}, &domain.DownloadConfig{
		BaseDir:        "/tmp/vidfetch",
		OutputDir:      "/tmp/vidfetch/completed",
		LogsDir:        "/tmp/vidfetch/logs",
		OutputTemplate: "%(uploader)s - %(title)s.%(ext)s",
	}, nil)

	args := eng.buildDownloadArgs("https://example.com/v", "137+140")

	assert.Equal(t, "-f", args[0])
	assert.Equal(t, "137+140", args[1])
	assert.Contains(t, args, "--socket-timeout")
	assert.Contains(t, args, "--fragment-retries")
	assert.Contains(t, args, "--write-subs")
	assert.Contains(t, args, "--write-thumbnail")
	assert.Contains(t, args, "--ffmpeg-location")
	// URL is always the final argument
	assert.Equal(t, "https://example.com/v", args[len(args)-1])
}

func TestBuildProbeArgs(t *testing.T) {
	eng := NewYTDLPEngine(&domain.EngineConfig{
		Binary:        "yt-dlp",
		SocketTimeout: 30 * time.Second,
	}, &domain.DownloadConfig{
		BaseDir:   "/tmp/vidfetch",
		OutputDir: "/tmp/vidfetch/completed",
		LogsDir:   "/tmp/vidfetch/logs",
	}, nil)

	args := eng.buildProbeArgs("https://example.com/v")

	assert.Contains(t, args, "-J")
	assert.Contains(t, args, "--skip-download")
	// Probe and download must describe the same single video, never a
	// surrounding playlist.
	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--socket-timeout")
	assert.Equal(t, "https://example.com/v", args[len(args)-1])
}

func TestIsMediaFile(t *testing.T) {
	assert.True(t, isMediaFile("/tmp/a.mp4"))
	assert.True(t, isMediaFile("/tmp/a.WEBM"))
	assert.True(t, isMediaFile("/tmp/a.m4a"))
	assert.False(t, isMediaFile("/tmp/a.info.json"))
	assert.False(t, isMediaFile("/tmp/a.part"))
	assert.False(t, isMediaFile("/tmp/a.srt"))
}
