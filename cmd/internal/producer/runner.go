package producer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"skygate/cmd/internal/metrics"
)

// Outcome is how a producer run resolved.
type Outcome string

const (
	// OutcomeReady means the ready marker was printed on stdout.
	OutcomeReady Outcome = "ready"
	// OutcomeCompleted means the process exited 0 without printing the marker.
	OutcomeCompleted Outcome = "completed_without_marker"
	// OutcomeFailed means the process could not start, exited non-zero, or was killed.
	OutcomeFailed Outcome = "failed"
)

// Result describes a resolved run. ExitCode is -1 when the process did not
// exit on its own (start failure, signal, or still running after ready).
type Result struct {
	Outcome  Outcome
	ExitCode int
}

// Stream names.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Line is one line of producer output.
type Line struct {
	Stream string
	Text   string
}

const maxLineBytes = 1 << 20

// Runner launches producer processes. It is safe for concurrent use; each
// call starts its own process.
type Runner struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config, log *slog.Logger, m *metrics.Metrics) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log, metrics: m}, nil
}

// RequireAuth reports whether the unauthenticated start endpoint must be gated.
func (r *Runner) RequireAuth() bool { return r.cfg.RequireAuth }

type process struct {
	lines  chan Line
	done   chan Result
	cancel context.CancelFunc
	pid    int
}

// start launches the producer under ctx bounded by the configured timeout.
// lines is closed once both pipes hit EOF; done then receives the exit result.
func (r *Runner) start(ctx context.Context) (*process, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)

	c := exec.CommandContext(ctx, r.cfg.Binary, r.cfg.args()...) // #nosec G204 -- binary and script come from operator config.
	c.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		c.Env = append(os.Environ(), r.cfg.Env...)
	}

	// Own process group so the whole tree can be signalled.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = r.cfg.GracePeriod

	stdout, err := c.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("producer: stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("producer: stderr pipe: %w", err)
	}

	if err := c.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("producer: start %s: %w", r.cfg.Binary, err)
	}

	p := &process{
		lines:  make(chan Line, 64),
		done:   make(chan Result, 1),
		cancel: cancel,
		pid:    c.Process.Pid,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(&wg, stdout, StreamStdout, p.lines)
	go scanLines(&wg, stderr, StreamStderr, p.lines)

	go func() {
		wg.Wait()
		close(p.lines)

		err := c.Wait()
		code := -1
		if c.ProcessState != nil {
			code = c.ProcessState.ExitCode()
		}
		res := Result{Outcome: OutcomeCompleted, ExitCode: code}
		if err != nil || code != 0 {
			res.Outcome = OutcomeFailed
		}
		p.done <- res
	}()

	return p, nil
}

func scanLines(wg *sync.WaitGroup, rd io.Reader, stream string, out chan<- Line) {
	defer wg.Done()

	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		out <- Line{Stream: stream, Text: sc.Text()}
	}
	// Keep the pipe drained so the child never blocks on a full buffer.
	_, _ = io.Copy(io.Discard, rd)
}

func (r *Runner) logLine(pid int, ln Line) {
	if ln.Stream == StreamStderr {
		r.log.Warn("producer.stderr", "pid", pid, "line", ln.Text)
		return
	}
	r.log.Info("producer.stdout", "pid", pid, "line", ln.Text)
}

func (r *Runner) isReady(ln Line) bool {
	return ln.Stream == StreamStdout && strings.Contains(ln.Text, r.cfg.ReadyMarker)
}

func (r *Runner) finish(p *process, res Result, started time.Time) {
	p.cancel()
	r.log.Info("producer.exit",
		"pid", p.pid,
		"outcome", string(res.Outcome),
		"exit_code", res.ExitCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// drain consumes the remaining output of a run that has already been
// reported to the caller.
func (r *Runner) drain(p *process, started time.Time) {
	for ln := range p.lines {
		r.logLine(p.pid, ln)
	}
	r.finish(p, <-p.done, started)
}

// Run starts the producer and returns as soon as the outcome is known: on the
// first ready marker, or when the process exits. After a ready marker the
// process keeps running in the background, detached from ctx but bounded by
// the configured timeout. If ctx ends first the process is stopped and
// ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	started := time.Now()

	p, err := r.start(context.WithoutCancel(ctx))
	if err != nil {
		r.log.Error("producer.start.fail", "err", err)
		r.metrics.RecordProducerRun(string(OutcomeFailed))
		return Result{Outcome: OutcomeFailed, ExitCode: -1}, err
	}
	r.log.Info("producer.start", "pid", p.pid, "binary", r.cfg.Binary, "script", r.cfg.Script)

	lines := p.lines
	for lines != nil {
		select {
		case ln, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			r.logLine(p.pid, ln)
			if r.isReady(ln) {
				r.metrics.RecordProducerRun(string(OutcomeReady))
				go r.drain(p, started)
				return Result{Outcome: OutcomeReady, ExitCode: -1}, nil
			}
		case <-ctx.Done():
			p.cancel()
			go r.drain(p, started)
			r.metrics.RecordProducerRun(string(OutcomeFailed))
			return Result{Outcome: OutcomeFailed, ExitCode: -1}, ctx.Err()
		}
	}

	res := <-p.done
	r.finish(p, res, started)
	r.metrics.RecordProducerRun(string(res.Outcome))
	return res, nil
}

// Stream starts the producer, calls fn for every output line, and returns
// once the process has exited. The run is ready if the marker was seen at
// any point, otherwise it resolves by exit code. Cancelling ctx or an error
// from fn stops the process.
func (r *Runner) Stream(ctx context.Context, fn func(Line) error) (Result, error) {
	started := time.Now()

	p, err := r.start(ctx)
	if err != nil {
		r.log.Error("producer.start.fail", "err", err)
		r.metrics.RecordProducerRun(string(OutcomeFailed))
		return Result{Outcome: OutcomeFailed, ExitCode: -1}, err
	}
	r.log.Info("producer.stream.start", "pid", p.pid, "binary", r.cfg.Binary, "script", r.cfg.Script)

	var (
		ready bool
		fnErr error
	)
	for ln := range p.lines {
		r.logLine(p.pid, ln)
		if r.isReady(ln) {
			ready = true
		}
		if fnErr != nil {
			continue
		}
		if err := fn(ln); err != nil {
			fnErr = err
			p.cancel()
		}
	}

	res := <-p.done
	if ready {
		res.Outcome = OutcomeReady
	}
	r.finish(p, res, started)
	r.metrics.RecordProducerRun(string(res.Outcome))

	if fnErr != nil {
		return res, fnErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
