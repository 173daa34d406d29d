package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// YTDLPEngine implements domain.ExtractionEngine by shelling out to yt-dlp.
// The engine owns byte-level transfer, manifest handling and muxing; this
// adapter owns argument construction, catalog normalization and mapping the
// engine's stderr vocabulary onto the failure classification.
type YTDLPEngine struct {
	config         *domain.EngineConfig
	incomingDir    string
	outputDir      string
	logsDir        string
	outputTemplate string
	eventLogger    *logger.MultiLogger
}

// NewYTDLPEngine creates a yt-dlp backed extraction engine
func NewYTDLPEngine(config *domain.EngineConfig, downloadCfg *domain.DownloadConfig, eventLogger *logger.MultiLogger) *YTDLPEngine {
	return &YTDLPEngine{
		config:         config,
		incomingDir:    filepath.Join(downloadCfg.BaseDir, "incoming"),
		outputDir:      downloadCfg.OutputDir,
		logsDir:        downloadCfg.LogsDir,
		outputTemplate: downloadCfg.OutputTemplate,
		eventLogger:    eventLogger,
	}
}

// probePayload is the subset of `yt-dlp -J` output this core reasons over
type probePayload struct {
	Title    string            `json:"title"`
	Uploader string            `json:"uploader"`
	Duration float64           `json:"duration"`
	Formats  []json.RawMessage `json:"formats"`
}

// rawFormat mirrors one entry of the engine's format list
type rawFormat struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	Height     int     `json:"height"`
	TBR        float64 `json:"tbr"`
	Protocol   string  `json:"protocol"`
	FormatNote string  `json:"format_note"`
}

// Probe runs a metadata-only extraction and normalizes the reported formats
// into a FormatCatalog. Failure to obtain the catalog at all is a
// ProbeFailureError; a reachable URL with zero formats is an empty catalog.
func (e *YTDLPEngine) Probe(ctx context.Context, url string) (*domain.ProbeResult, error) {
	if e.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ProbeTimeout)
		defer cancel()
	}

	args := e.buildProbeArgs(url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := firstStderrLine(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, &domain.ProbeFailureError{URL: url, Detail: detail}
	}

	var payload probePayload
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		return nil, &domain.ProbeFailureError{URL: url, Detail: fmt.Sprintf("unparseable probe output: %v", err)}
	}

	catalog := make(domain.FormatCatalog, 0, len(payload.Formats))
	for _, raw := range payload.Formats {
		var rf rawFormat
		if err := json.Unmarshal(raw, &rf); err != nil {
			continue
		}
		if rf.FormatID == "" {
			continue
		}
		catalog = append(catalog, normalizeFormat(rf, raw))
	}

	return &domain.ProbeResult{
		Metadata: domain.SourceMetadata{
			Title:    payload.Title,
			Uploader: payload.Uploader,
			Duration: payload.Duration,
		},
		Catalog: catalog,
	}, nil
}

// buildProbeArgs assembles the metadata-only invocation. --no-playlist keeps
// the probed catalog describing the same single video the download would
// fetch.
func (e *YTDLPEngine) buildProbeArgs(url string) []string {
	args := []string{"-J", "--no-warnings", "--skip-download", "--no-playlist"}
	if e.config.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(e.config.SocketTimeout.Seconds())))
	}
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		args = append(args, "--cookies", e.config.CookieFile)
	}
	return append(args, url)
}

// normalizeFormat maps one engine format entry onto the neutral FormatEntry
// vocabulary. "none" codecs decide the kind; the protocol decides transport.
func normalizeFormat(rf rawFormat, raw json.RawMessage) domain.FormatEntry {
	kind := domain.KindCombined
	switch {
	case rf.VCodec == "none":
		kind = domain.KindAudioOnly
	case rf.ACodec == "none":
		kind = domain.KindVideoOnly
	}

	transport := domain.TransportProgressive
	proto := strings.ToLower(rf.Protocol)
	if strings.Contains(proto, "m3u8") || strings.Contains(proto, "hls") || strings.Contains(proto, "dash") {
		transport = domain.TransportAdaptive
	}

	return domain.FormatEntry{
		ID:         rf.FormatID,
		Kind:       kind,
		Transport:  transport,
		Height:     rf.Height,
		Container:  rf.Ext,
		VideoCodec: rf.VCodec,
		AudioCodec: rf.ACodec,
		Bitrate:    rf.TBR,
		Extra:      raw,
	}
}

// Download fetches one representation chosen by the selector expression.
// All engine output goes to the dated download log; the stderr tail is kept
// in memory for failure classification.
func (e *YTDLPEngine) Download(ctx context.Context, url, selector string) (string, error) {
	if err := os.MkdirAll(e.incomingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create incoming directory: %w", err)
	}

	args := e.buildDownloadArgs(url, selector)

	downloadLog, err := e.openLogFile()
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	defer downloadLog.Close()

	// Header with a shell-escaped command line, for copy-paste reproduction
	cmdLine := ShellEscapeCommand(e.config.Binary, args...)
	e.writeLogHeader(downloadLog, selector, cmdLine)

	started := time.Now()

	// stderr goes both to the log and to a buffer for classification
	var stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdout = downloadLog
	cmd.Stderr = io.MultiWriter(downloadLog, &stderrBuf)

	runErr := cmd.Run()
	if runErr != nil {
		engErr := classifyEngineOutput(stderrBuf.String(), runErr)
		e.writeLogFooter(downloadLog, false, engErr.Detail)
		if e.eventLogger != nil {
			e.eventLogger.LogAppError("Engine download failed",
				zap.String("url", url),
				zap.String("selector", selector),
				zap.String("kind", string(engErr.Kind)),
				zap.String("detail", engErr.Detail))
		}
		return "", fmt.Errorf("engine download: %w", engErr)
	}

	filePath, err := e.collectOutput(started)
	if err != nil {
		e.writeLogFooter(downloadLog, false, err.Error())
		return "", err
	}

	e.writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s", filePath))
	return filePath, nil
}

// buildDownloadArgs assembles the engine invocation for one selector
func (e *YTDLPEngine) buildDownloadArgs(url, selector string) []string {
	args := []string{
		"-f", selector,
		"--no-playlist",
		"--restrict-filenames",
		"--newline",
		"-o", e.outputTemplate,
		"-P", e.incomingDir,
	}

	if e.config.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(e.config.SocketTimeout.Seconds())))
	}
	if e.config.FragmentRetries > 0 {
		// The engine owns its own retry/backoff mid-transfer; whole-attempt
		// retries stay with the orchestrator.
		args = append(args, "--fragment-retries", strconv.Itoa(e.config.FragmentRetries))
	}
	if e.config.WriteSubtitles {
		args = append(args, "--write-subs", "--sub-langs", "en.*,-live_chat")
	}
	if e.config.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	if e.config.FFmpegBinary != "" {
		args = append(args, "--ffmpeg-location", e.config.FFmpegBinary)
	}
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		args = append(args, "--cookies", e.config.CookieFile)
	}

	return append(args, url)
}

// collectOutput locates the media file produced after start and moves it to
// the output directory.
func (e *YTDLPEngine) collectOutput(start time.Time) (string, error) {
	produced, err := e.findNewestMedia(start)
	if err != nil {
		return "", err
	}
	if produced == "" {
		return "", fmt.Errorf("no media file produced")
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := filepath.Join(e.outputDir, filepath.Base(produced))
	if err := os.Rename(produced, dest); err != nil {
		if err := copyFile(produced, dest); err != nil {
			return "", fmt.Errorf("failed to move file %s: %w", produced, err)
		}
		os.Remove(produced)
	}

	// Sidecar files (subtitles, thumbnails) travel with the media file.
	base := strings.TrimSuffix(produced, filepath.Ext(produced))
	matches, _ := filepath.Glob(base + ".*")
	for _, sidecar := range matches {
		if sidecar == produced {
			continue
		}
		sidecarDest := filepath.Join(e.outputDir, filepath.Base(sidecar))
		if err := os.Rename(sidecar, sidecarDest); err != nil {
			if copyFile(sidecar, sidecarDest) == nil {
				os.Remove(sidecar)
			}
		}
	}

	return dest, nil
}

// findNewestMedia returns the most recently modified media file in the
// incoming directory created at or after start.
func (e *YTDLPEngine) findNewestMedia(start time.Time) (string, error) {
	var newest string
	var newestMod time.Time

	err := filepath.Walk(e.incomingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isMediaFile(path) {
			return nil
		}
		if info.ModTime().Before(start.Truncate(time.Second)) {
			return nil
		}
		if info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
		return nil
	})

	return newest, err
}

func isMediaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mkv", ".webm", ".avi", ".mov", ".m4v", ".m4a", ".mp3", ".opus", ".flv", ".ts":
		return true
	default:
		return false
	}
}

// openLogFile opens the dated download log. All raw engine output (stdout
// and stderr) goes to this single file.
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	downloadPath := filepath.Join(e.logsDir, "download-"+dateStr+".log")
	return os.OpenFile(downloadPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the attempt start marker
func (e *YTDLPEngine) writeLogHeader(file *os.File, selector, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Attempt: %s ===\n", timestamp, selector))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the attempt end marker
func (e *YTDLPEngine) writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}

// classifyEngineOutput maps the engine's stderr vocabulary onto the failure
// classification the orchestrator reacts to. Unknown messages come back
// marked unclassified so they stay bounded by the transient retry budget.
func classifyEngineOutput(stderr string, runErr error) *domain.EngineError {
	detail := firstStderrLine(stderr)
	if detail == "" {
		detail = runErr.Error()
	}
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "requested format is not available"),
		strings.Contains(lower, "format is not available"),
		strings.Contains(lower, "no video formats found"):
		return domain.NewEngineError(domain.FailureFormatUnavailable, detail)

	case strings.Contains(lower, "sign in to"),
		strings.Contains(lower, "login required"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "has been removed"),
		strings.Contains(lower, "account associated with this video has been terminated"),
		strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "http error 404"),
		strings.Contains(lower, "http error 410"),
		strings.Contains(lower, "no space left on device"),
		strings.Contains(lower, "permission denied"):
		return domain.NewEngineError(domain.FailureFatal, detail)

	case strings.Contains(lower, "timed out"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "temporary failure"),
		strings.Contains(lower, "name resolution"),
		strings.Contains(lower, "incomplete read"),
		strings.Contains(lower, "http error 5"),
		strings.Contains(lower, "http error 429"),
		strings.Contains(lower, "unable to download"):
		return domain.NewEngineError(domain.FailureTransient, detail)
	}

	return &domain.EngineError{Kind: domain.FailureTransient, Detail: detail, Unclassified: true}
}

// firstStderrLine extracts the first ERROR line, falling back to the first
// non-empty line.
func firstStderrLine(stderr string) string {
	var fallback string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
		if fallback == "" {
			fallback = line
		}
	}
	return fallback
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// copyFile copies src to dst, used when a cross-device rename fails
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
