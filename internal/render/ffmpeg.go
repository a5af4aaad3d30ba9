package render

import (
	"fmt"
	"io"
	"os/exec"
)

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg subprocess, mirroring
// the flags original_source/phichain-renderer/src/main.rs passes: rawvideo
// input at the configured size and frame rate, libx264 output.
type FFmpegEncoder struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewFFmpegEncoder spawns ffmpeg and returns an Encoder writing to its stdin.
func NewFFmpegEncoder(width, height, fps int, output string) (*FFmpegEncoder, error) {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-framerate", fmt.Sprint(fps),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-an",
		"-i", "-",
		"-c:v", "libx264",
		output,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("render: ffmpeg encoder: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("render: ffmpeg encoder: spawn ffmpeg: %w", err)
	}
	return &FFmpegEncoder{cmd: cmd, stdin: stdin}, nil
}

func (e *FFmpegEncoder) WriteFrame(rgba []byte) error {
	if _, err := e.stdin.Write(rgba); err != nil {
		return fmt.Errorf("render: ffmpeg encoder: write frame: %w", err)
	}
	return nil
}

func (e *FFmpegEncoder) Close() error {
	if err := e.stdin.Close(); err != nil {
		return fmt.Errorf("render: ffmpeg encoder: close stdin: %w", err)
	}
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("render: ffmpeg encoder: wait: %w", err)
	}
	return nil
}

// NopEncoder discards frames, keeping only the most recent one; used for
// dry runs and tests.
type NopEncoder struct {
	Frames    int
	LastFrame []byte
}

func (e *NopEncoder) WriteFrame(rgba []byte) error {
	e.Frames++
	e.LastFrame = rgba
	return nil
}
func (e *NopEncoder) Close() error { return nil }
