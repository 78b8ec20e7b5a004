package relay

import (
	"context"
	"time"

	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/metrics"
)

// DefaultTranscriptTimeout bounds each transcript write when no timeout is configured.
const DefaultTranscriptTimeout = 2 * time.Second

// mirrorBuffer is how many fragments may wait for the transcript before new ones are dropped.
const mirrorBuffer = 1024

// mirror copies a session's fragments into the transcript store on its own goroutine
// so a slow store never holds back frames to the client.
type mirror struct {
	transcript Transcript
	streamID   string
	timeout    time.Duration
	log        *logger.Logger

	ctx       context.Context
	fragments chan string
	result    *Result
	done      chan struct{}

	// broken is only touched by the run goroutine.
	broken bool
}

func (r *Relay) startMirror(ctx context.Context, streamID string, log *logger.Logger) *mirror {
	if r.transcript == nil {
		return nil
	}
	m := &mirror{
		transcript: r.transcript,
		streamID:   streamID,
		timeout:    r.transcriptTimeout,
		log:        log,
		ctx:        ctx,
		fragments:  make(chan string, mirrorBuffer),
		done:       make(chan struct{}),
	}
	r.mirrors.Add(1)
	go func() {
		defer r.mirrors.Done()
		defer close(m.done)
		m.run()
	}()
	return m
}

// push queues a fragment without blocking. A full queue marks the transcript incomplete.
func (m *mirror) push(fragment string) {
	if m == nil {
		return
	}
	select {
	case m.fragments <- fragment:
	default:
		metrics.TranscriptErrors.WithLabelValues("dropped").Inc()
	}
}

// close hands over the final result. The transcript is finished once the queue drains.
func (m *mirror) close(res Result) {
	if m == nil {
		return
	}
	m.result = &res
	close(m.fragments)
}

func (m *mirror) run() {
	for fragment := range m.fragments {
		if m.broken {
			continue
		}
		if err := m.write(func(ctx context.Context) error {
			return m.transcript.Append(ctx, m.streamID, fragment)
		}); err != nil {
			m.broken = true
			metrics.TranscriptErrors.WithLabelValues("append").Inc()
			m.log.Warn("transcript append failed, mirroring stopped", "error", err.Error())
		}
	}
	if m.broken || m.result == nil {
		return
	}
	if err := m.write(func(ctx context.Context) error {
		return m.transcript.Finish(ctx, m.streamID, m.result)
	}); err != nil {
		metrics.TranscriptErrors.WithLabelValues("finish").Inc()
		m.log.Warn("transcript finish failed", "error", err.Error())
	}
}

func (m *mirror) write(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()
	return fn(ctx)
}
