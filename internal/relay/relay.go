// Package relay streams a chat completion from the model provider to a client as
// `0:<json string>\n` frames and saves the assistant reply once the upstream ends.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"animehome/backend/ai"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrCharacterGone is returned by a Store when the character disappeared before the save.
var ErrCharacterGone = errors.New("character no longer exists")

// ErrUpstream wraps every failure that prevents a stream from starting.
var ErrUpstream = errors.New("upstream completion failed")

// DefaultPersistTimeout bounds the terminal save when no timeout is configured.
const DefaultPersistTimeout = 10 * time.Second

// Store is the persistence collaborator of the relay.
type Store interface {
	CharacterExists(ctx context.Context, id uint) (bool, error)
	// AppendAssistantMessage inserts one assistant message and returns its generated id.
	AppendAssistantMessage(ctx context.Context, characterID uint, content string) (string, error)
}

// Transcript mirrors a stream for clients that reconnect. Implementations must be
// safe for concurrent use; their errors never affect the stream.
type Transcript interface {
	Append(ctx context.Context, streamID, fragment string) error
	Finish(ctx context.Context, streamID string, res *Result) error
}

// Options tune a Relay. Zero values are replaced by defaults.
type Options struct {
	PersistTimeout    time.Duration
	TranscriptTimeout time.Duration
	Transcript        Transcript
	Logger            *logger.Logger
	Tracer            trace.Tracer
}

// Relay is shared by all chat requests. It holds no per-request state.
type Relay struct {
	client            ai.StreamingClient
	store             Store
	transcript        Transcript
	persistTimeout    time.Duration
	transcriptTimeout time.Duration
	log               *logger.Logger
	tracer            trace.Tracer

	mirrors sync.WaitGroup
}

func New(client ai.StreamingClient, store Store, opts Options) *Relay {
	r := &Relay{
		client:            client,
		store:             store,
		transcript:        opts.Transcript,
		persistTimeout:    opts.PersistTimeout,
		transcriptTimeout: opts.TranscriptTimeout,
		log:               opts.Logger,
		tracer:            opts.Tracer,
	}
	if r.persistTimeout <= 0 {
		r.persistTimeout = DefaultPersistTimeout
	}
	if r.transcriptTimeout <= 0 {
		r.transcriptTimeout = DefaultTranscriptTimeout
	}
	if r.log == nil {
		r.log = logger.GetGlobal()
		if r.log == nil {
			r.log = logger.New(logger.DefaultConfig())
		}
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("animehome/relay")
	}
	return r
}

// Wait blocks until every pending transcript write has finished.
func (r *Relay) Wait() {
	r.mirrors.Wait()
}

// Session is one relay run. It is created by Open and consumed by Pipe.
type Session struct {
	relay *Relay
	req   *Request
	log   *logger.Logger

	// ctx outlives the client connection; upstream reads and the save run under it.
	ctx    context.Context
	span   trace.Span
	stream ai.DeltaStream
	close  sync.Once
	start  time.Time

	first    string
	hasFirst bool
	ended    bool
}

// Open starts the upstream completion and waits for its first non-empty fragment.
// Any failure up to that point is returned as an ErrUpstream error and nothing is
// persisted. A stream that ends before producing text still yields a Session.
func (r *Relay) Open(ctx context.Context, req *Request) (*Session, error) {
	detached := context.WithoutCancel(ctx)
	detached, span := r.tracer.Start(detached, "relay.stream",
		trace.WithAttributes(
			attribute.String("relay.stream_id", req.StreamID),
			attribute.Int("relay.turns", len(req.Messages)),
			attribute.Bool("relay.system_prompt", req.SystemPrompt != nil && *req.SystemPrompt != ""),
		),
	)
	if req.CharacterID != nil {
		span.SetAttributes(attribute.Int64("relay.character_id", *req.CharacterID))
	}

	s := &Session{
		relay: r,
		req:   req,
		log:   r.log.WithStreamID(req.StreamID),
		ctx:   detached,
		span:  span,
		start: time.Now(),
	}

	stream, err := r.client.StreamChat(detached, req.Turns())
	if err != nil {
		return nil, s.abort(err)
	}
	s.stream = stream

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			s.ended = true
			break
		}
		if err != nil {
			s.closeStream()
			return nil, s.abort(err)
		}
		if fragment == "" {
			continue
		}
		s.first = fragment
		s.hasFirst = true
		break
	}

	metrics.RelayStreamsActive.Inc()
	return s, nil
}

func (s *Session) abort(err error) error {
	metrics.RelayOpenFailures.Inc()
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, "upstream open failed")
	s.span.End()
	s.log.LogError(err, "chat stream could not be started")
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func (s *Session) closeStream() {
	s.close.Do(func() {
		if s.stream == nil {
			return
		}
		if err := s.stream.Close(); err != nil {
			s.log.Debug("closing upstream stream", "error", err.Error())
		}
	})
}

// Pipe writes the 200 response, forwards every remaining fragment as a frame, and
// runs the terminal save. clientCtx is the request context: once it is done, or a
// write fails, frames stop but the upstream is still drained and the reply saved.
func (s *Session) Pipe(clientCtx context.Context, w http.ResponseWriter) *Result {
	defer metrics.RelayStreamsActive.Dec()
	defer s.closeStream()

	res := &Result{
		StreamID:    s.req.StreamID,
		CharacterID: s.req.CharacterID,
	}

	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	transcript := s.relay.startMirror(s.ctx, s.req.StreamID, s.log)

	var text strings.Builder
	forward := func(fragment string) {
		text.WriteString(fragment)
		res.Frames++
		metrics.RelayFramesTotal.Inc()
		defer transcript.push(fragment)

		if res.ClientGone {
			return
		}
		if clientCtx.Err() != nil {
			s.markClientGone(res, clientCtx.Err())
			return
		}
		frame, err := EncodeFrame(fragment)
		if err != nil {
			s.log.LogError(err, "dropping unencodable fragment")
			return
		}
		if _, err := w.Write(frame); err != nil {
			s.markClientGone(res, err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if s.hasFirst {
		forward(s.first)
	}
	if !s.ended {
		for {
			fragment, err := s.stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				res.UpstreamErr = err
				break
			}
			if fragment == "" {
				continue
			}
			forward(fragment)
		}
	}
	s.closeStream()

	res.Text = text.String()
	if res.UpstreamErr == nil && !res.ClientGone {
		res.Delivery = DeliveryFull
	} else {
		res.Delivery = DeliveryPartial
	}

	s.relay.persist(s.ctx, s.req, res)
	res.Duration = time.Since(s.start)
	transcript.close(*res)
	s.finish(res)

	return res
}

func (s *Session) markClientGone(res *Result, cause error) {
	res.ClientGone = true
	metrics.RelayClientDisconnects.Inc()
	s.span.AddEvent("client gone")
	s.log.Info("client disconnected, draining upstream", "cause", cause.Error())
}

func (s *Session) finish(res *Result) {
	metrics.RelayStreamsTotal.WithLabelValues(string(res.Delivery), string(res.Persistence)).Inc()
	metrics.RelayStreamDuration.Observe(res.Duration.Seconds())

	s.span.SetAttributes(
		attribute.String("relay.delivery", string(res.Delivery)),
		attribute.String("relay.persistence", string(res.Persistence)),
		attribute.Int("relay.frames", res.Frames),
	)
	if res.UpstreamErr != nil {
		s.span.RecordError(res.UpstreamErr)
		s.span.SetStatus(codes.Error, "upstream failed mid-stream")
	}
	s.span.End()

	switch {
	case res.UpstreamErr != nil || res.Persistence == PersistenceFailed:
		s.log.Warn("chat stream finished with errors", res.LogArgs()...)
	default:
		s.log.Info("chat stream finished", res.LogArgs()...)
	}
}

// persist saves the accumulated reply at most once. It runs under its own deadline,
// detached from the client request, and records its outcome on res. A character id
// that cannot name a row is treated like one that was deleted.
func (r *Relay) persist(ctx context.Context, req *Request, res *Result) {
	if req.CharacterID == nil {
		res.Persistence = PersistenceNotRequested
		return
	}
	if *req.CharacterID <= 0 {
		res.Persistence = PersistenceSkipped
		return
	}
	characterID := uint(*req.CharacterID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
	defer cancel()

	exists, err := r.store.CharacterExists(ctx, characterID)
	if err != nil {
		res.Persistence = PersistenceFailed
		res.PersistErr = err
		return
	}
	if !exists {
		res.Persistence = PersistenceSkipped
		return
	}

	id, err := r.store.AppendAssistantMessage(ctx, characterID, res.Text)
	switch {
	case errors.Is(err, ErrCharacterGone):
		res.Persistence = PersistenceSkipped
	case err != nil:
		res.Persistence = PersistenceFailed
		res.PersistErr = err
	default:
		res.Persistence = PersistencePersisted
		res.MessageID = id
	}
}
