package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
)

// defaultEventBuffer is how many events may queue for a slow consumer before progress is dropped
const defaultEventBuffer = 64

// StreamOptions configures one published acquisition
type StreamOptions struct {
	// Probe fetches metadata before downloading and emits it as an Info event
	Probe bool
}

// Publisher runs acquisitions in the background and exposes each one as an ordered event stream
type Publisher struct {
	acquirer   domain.MediaAcquirer
	recorder   Recorder
	logger     *zap.Logger
	bufferSize int
}

// NewPublisher creates a new event publisher
func NewPublisher(acquirer domain.MediaAcquirer, recorder Recorder, logger *zap.Logger) *Publisher {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		acquirer:   acquirer,
		recorder:   recorder,
		logger:     logger,
		bufferSize: defaultEventBuffer,
	}
}

// Stream is one acquisition's event sequence: at most one Info, Progress events with strictly
// increasing percentages, then exactly one Complete or Error. Events is closed after the terminal event.
type Stream struct {
	events      chan domain.Event
	abandoned   chan struct{}
	abandonOnce sync.Once
	cancel      context.CancelFunc
	done        chan struct{}
}

// Events returns the event channel
func (s *Stream) Events() <-chan domain.Event {
	return s.events
}

// Close abandons the stream. The acquisition keeps running to completion.
func (s *Stream) Close() {
	s.abandonOnce.Do(func() { close(s.abandoned) })
}

// Cancel stops the acquisition; the stream then ends with an Error event
func (s *Stream) Cancel() {
	s.cancel()
}

// Done is closed once the acquisition has finished and the terminal event was delivered or abandoned
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Start launches the acquisition and returns its stream. Cancelling ctx does not stop the
// acquisition; only Stream.Cancel does.
func (p *Publisher) Start(ctx context.Context, req domain.AcquisitionRequest, caller domain.Caller, opts StreamOptions) *Stream {
	acqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Stream{
		events:    make(chan domain.Event, p.bufferSize),
		abandoned: make(chan struct{}),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go p.run(acqCtx, s, req, caller, opts)
	return s
}

func (p *Publisher) run(ctx context.Context, s *Stream, req domain.AcquisitionRequest, caller domain.Caller, opts StreamOptions) {
	defer close(s.done)
	defer close(s.events)
	defer s.cancel()

	log := p.logger.With(zap.String("url", req.URL), zap.String("format", string(req.Mode)))

	var info *domain.VideoMetadata
	if opts.Probe {
		var err error
		info, err = p.acquirer.Probe(ctx, req.URL)
		if err != nil {
			log.Warn("Stream ended before download", zap.Error(err))
			p.recorder.Failed(p.recorder.Started(req.URL, nil, req.Mode, caller), err)
			p.deliver(s, domain.ErrorEvent(err))
			return
		}
		p.deliver(s, domain.InfoEvent(info))
	}

	historyID := p.recorder.Started(req.URL, info, req.Mode, caller)

	last := -1.0
	onProgress := func(percent float64) {
		if percent <= last {
			return
		}
		last = percent
		p.offer(s, domain.ProgressEvent(percent))
	}

	result, session, err := p.acquirer.Acquire(ctx, req, onProgress)
	if err != nil {
		p.recorder.Failed(historyID, err)
		p.deliver(s, domain.ErrorEvent(err))
		return
	}

	p.recorder.Completed(historyID)
	log.Info("Stream completed", zap.String("session", session.ID), zap.String("file", result.Filename))
	p.deliver(s, domain.CompleteEvent(session.ID, result))
}

// deliver blocks until the consumer takes the event or abandons the stream
func (p *Publisher) deliver(s *Stream, event domain.Event) {
	select {
	case s.events <- event:
	case <-s.abandoned:
	}
}

// offer hands over the event only if the consumer has room for it
func (p *Publisher) offer(s *Stream, event domain.Event) {
	select {
	case s.events <- event:
	default:
	}
}
