package encoding

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"shrinkray/internal/plan"
	"shrinkray/internal/services"
)

var commandContext = exec.CommandContext

// Encoder executes a rendered plan against the source file.
type Encoder interface {
	Encode(ctx context.Context, p plan.Plan, totalSeconds float64, progress func(ProgressUpdate)) error
}

// Option configures the ffmpeg encoder.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(e *FFmpeg) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// FFmpeg runs plans through the ffmpeg command-line encoder.
type FFmpeg struct {
	binary string
}

// NewFFmpeg constructs an encoder using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	enc := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(enc)
	}
	return enc
}

// stderrTailCap bounds how much stderr is buffered before the tail is taken.
const stderrTailCap = 64 * 1024

// Encode runs the plan and streams progress updates parsed from ffmpeg's
// -progress output. totalSeconds sizes the percentage; pass zero when the
// output duration is unknown and Percent will report -1.
func (e *FFmpeg) Encode(ctx context.Context, p plan.Plan, totalSeconds float64, progress func(ProgressUpdate)) error {
	binary, err := exec.LookPath(e.binary)
	if err != nil {
		return services.Wrap(services.ErrEncoderUnavailable, "encoding", "lookup_binary",
			fmt.Sprintf("encoder binary %q not found", e.binary), err)
	}

	args := append([]string{"-progress", "pipe:1", "-nostats"}, p.Args...)
	cmd := commandContext(ctx, binary, args...) //nolint:gosec

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "encoding", "stdout_pipe", "attach stdout pipe", err)
	}
	stderrBuf := newBoundedBuffer(stderrTailCap)
	cmd.Stderr = stderrBuf

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrEncoderUnavailable, "encoding", "start",
			fmt.Sprintf("start %s", e.binary), err)
	}

	parser := newProgressParser(totalSeconds)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		update, complete := parser.Feed(scanner.Text())
		if complete && progress != nil {
			progress(update)
		}
	}
	// A scanner error here means the pipe broke; cmd.Wait reports the
	// underlying failure with stderr context, so it wins.
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		tail := services.Tail(stderrBuf.String(), services.TailLimit)
		message := "encode failed"
		if tail != "" {
			message = fmt.Sprintf("encode failed: %s", tail)
		}
		return services.Wrap(services.ErrEncodeFailed, "encoding", "wait", message, waitErr)
	}
	return nil
}

var _ Encoder = (*FFmpeg)(nil)

// boundedBuffer keeps at most the last cap bytes written to it.
type boundedBuffer struct {
	mu    sync.Mutex
	limit int
	buf   bytes.Buffer
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if excess := b.buf.Len() - b.limit; excess > 0 {
		_, _ = io.CopyN(io.Discard, &b.buf, int64(excess))
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
