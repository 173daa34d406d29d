package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

var _ domain.PostProcessor = (*FFmpegPostProcessor)(nil)

// FFmpegPostProcessor implements domain.PostProcessor by remuxing the
// produced file into the preferred container with a stream copy. It runs
// only after a successful download and its failures are advisory.
type FFmpegPostProcessor struct {
	binary    string
	container string
	logger    *zap.Logger
}

// NewFFmpegPostProcessor creates a post-processor targeting the preferred
// container, e.g. "mp4".
func NewFFmpegPostProcessor(binary, container string, log *zap.Logger) *FFmpegPostProcessor {
	return &FFmpegPostProcessor{
		binary:    binary,
		container: strings.TrimPrefix(container, "."),
		logger:    log,
	}
}

// Process remuxes filePath into the target container. A file already in the
// target container is returned unchanged. No transcoding happens here;
// streams are copied as-is.
func (p *FFmpegPostProcessor) Process(ctx context.Context, filePath string) (string, error) {
	if p.container == "" {
		return filePath, nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if ext == p.container {
		return filePath, nil
	}

	dest := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + "." + p.container

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary,
		"-y",
		"-i", filePath,
		"-c", "copy",
		dest,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("remux to %s failed: %s", p.container, firstStderrLine(stderr.String()))
	}

	if err := os.Remove(filePath); err != nil {
		p.logger.Warn("Failed to remove pre-remux file",
			zap.String("file", filePath),
			zap.Error(err))
	}

	p.logger.Info("Remuxed download",
		zap.String("from", filePath),
		zap.String("to", dest))

	return dest, nil
}
