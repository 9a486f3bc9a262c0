// Package orchestrator sequences one upload and one render at a time: select
// a clip, upload it, submit the render once the upload settles, follow
// progress to a terminal state and hand the temporary asset to the cleanup
// reconciler exactly once.
//
// All state lives in a single event loop goroutine; the exported methods only
// send messages to it. Completions of in-flight network work come back as
// messages tagged with a generation counter, so a superseded upload or render
// can finish late without corrupting current state.
package orchestrator

import (
	"context"
	"time"

	"reel/internal/composition"
	"reel/internal/models"
	"reel/internal/pkg/logger"
	"reel/internal/renderapi"
	"reel/internal/uploader"
)

// Uploader moves one clip to temporary storage. Satisfied by
// *uploader.Uploader.
type Uploader interface {
	Upload(ctx context.Context, in uploader.Input) (models.AssetReference, error)
}

// Renderer submits renders and reports their progress. Satisfied by
// *renderapi.Client.
type Renderer interface {
	SubmitRender(ctx context.Context, req composition.RenderRequest) (renderapi.SubmitResult, error)
	Progress(ctx context.Context, renderID string) (renderapi.ProgressResult, error)
}

// Cleaner disposes of a temporary asset after a render attempt settles.
// Reconcile must not block; failures are the cleaner's own concern.
type Cleaner interface {
	Reconcile(ctx context.Context, ref models.AssetReference)
}

const defaultPollInterval = 2 * time.Second

type Deps struct {
	Uploader Uploader
	Renderer Renderer
	Cleaner  Cleaner

	// PollInterval is the render progress polling cadence.
	PollInterval time.Duration

	Log *logger.Logger
}

type message interface{ isMessage() }

type selectFileMsg struct{ in uploader.Input }
type clearFileMsg struct{}
type triggerRenderMsg struct{ req composition.RenderRequest }
type statusMsg struct{ reply chan Status }

type uploadSettledMsg struct {
	gen int
	ref models.AssetReference
	err error
}

type submitSettledMsg struct {
	gen int
	res renderapi.SubmitResult
	err error
}

type progressMsg struct {
	gen int
	res renderapi.ProgressResult
	err error
}

func (selectFileMsg) isMessage()    {}
func (clearFileMsg) isMessage()     {}
func (triggerRenderMsg) isMessage() {}
func (statusMsg) isMessage()        {}
func (uploadSettledMsg) isMessage() {}
func (submitSettledMsg) isMessage() {}
func (progressMsg) isMessage()      {}

type Machine struct {
	up           Uploader
	rend         Renderer
	clean        Cleaner
	log          *logger.Logger
	pollInterval time.Duration

	msgs    chan message
	updates chan Status
	done    chan struct{}

	// Everything below is owned by the Run loop.
	uploadPhase UploadPhase
	uploadGen   int
	ref         models.AssetReference
	uploadErr   error

	renderPhase RenderPhase
	renderGen   int
	renderID    string
	progress    float64
	outputURL   string
	outputSize  int64
	renderErr   string

	// renderPending holds a render trigger received while an upload was
	// still in flight. It is re-evaluated whenever the upload settles.
	renderPending bool
	pendingReq    composition.RenderRequest
}

func New(d Deps) *Machine {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	interval := d.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Machine{
		up:           d.Uploader,
		rend:         d.Renderer,
		clean:        d.Cleaner,
		log:          log.WithComponent("orchestrator"),
		pollInterval: interval,
		msgs:         make(chan message),
		updates:      make(chan Status, 16),
		done:         make(chan struct{}),
	}
}

// Run drives the event loop until ctx is canceled. All state transitions
// happen here and nowhere else.
func (m *Machine) Run(ctx context.Context) error {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.msgs:
			m.handle(ctx, msg)
		}
	}
}

// SelectFile starts uploading a clip. Selecting a new clip while a previous
// upload is in flight supersedes it: the old upload may still complete, but
// its result is discarded.
func (m *Machine) SelectFile(ctx context.Context, in uploader.Input) error {
	return m.send(ctx, selectFileMsg{in: in})
}

// ClearFile drops the current clip selection and any uploaded reference, so
// the next render runs without a video asset.
func (m *Machine) ClearFile(ctx context.Context) error {
	return m.send(ctx, clearFileMsg{})
}

// TriggerRender asks for a render with the given request. If an upload is in
// flight the trigger is held and re-evaluated once the upload settles; the
// render is never submitted against an asset that is not durably written.
func (m *Machine) TriggerRender(ctx context.Context, req composition.RenderRequest) error {
	return m.send(ctx, triggerRenderMsg{req: req})
}

// Status returns a snapshot of the machine.
func (m *Machine) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := m.send(ctx, statusMsg{reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-m.done:
		return Status{}, context.Canceled
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Updates delivers status snapshots after each transition. The channel is
// best-effort: when the consumer lags, intermediate snapshots are dropped in
// favor of newer ones.
func (m *Machine) Updates() <-chan Status {
	return m.updates
}

func (m *Machine) send(ctx context.Context, msg message) error {
	select {
	case m.msgs <- msg:
		return nil
	case <-m.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) handle(ctx context.Context, msg message) {
	switch msg := msg.(type) {
	case selectFileMsg:
		m.handleSelectFile(ctx, msg.in)
	case clearFileMsg:
		m.handleClearFile()
	case triggerRenderMsg:
		m.handleTrigger(ctx, msg.req)
	case statusMsg:
		msg.reply <- m.snapshot()
	case uploadSettledMsg:
		m.handleUploadSettled(ctx, msg)
	case submitSettledMsg:
		m.handleSubmitSettled(ctx, msg)
	case progressMsg:
		m.handleProgress(ctx, msg)
	}
}

func (m *Machine) handleSelectFile(ctx context.Context, in uploader.Input) {
	m.uploadGen++
	gen := m.uploadGen

	m.uploadPhase = UploadRequesting
	m.ref = models.AssetReference{}
	m.uploadErr = nil
	m.publish()

	go func() {
		ref, err := m.up.Upload(ctx, in)
		m.post(ctx, uploadSettledMsg{gen: gen, ref: ref, err: err})
	}()
}

func (m *Machine) handleClearFile() {
	m.uploadGen++ // supersedes any in-flight upload
	m.uploadPhase = UploadIdle
	m.ref = models.AssetReference{}
	m.uploadErr = nil
	m.publish()
}

func (m *Machine) handleTrigger(ctx context.Context, req composition.RenderRequest) {
	// One live render at a time; a trigger during an active render is a no-op.
	if m.renderPhase == RenderSubmitting || m.renderPhase == RenderInProgress {
		m.log.Warn("render trigger ignored, render already active", "render_id", m.renderID)
		return
	}

	// A fresh attempt after a terminal state starts from idle on both axes.
	if m.renderPhase.Terminal() {
		m.renderPhase = RenderIdle
		m.renderID = ""
		m.progress = 0
		m.outputURL = ""
		m.outputSize = 0
		m.renderErr = ""
		if m.uploadPhase.Terminal() {
			m.uploadPhase = UploadIdle
			m.uploadErr = nil
		}
	}

	m.pendingReq = req
	m.renderPending = true
	m.evaluateRender(ctx)
}

// evaluateRender is the level-triggered submission guard: it fires the held
// render trigger only once the upload axis is settled.
func (m *Machine) evaluateRender(ctx context.Context) {
	if !m.renderPending {
		return
	}

	switch m.uploadPhase {
	case UploadRequesting, UploadTransferring:
		// Upload still in flight; the trigger stays pending.
		return

	case UploadFailed:
		// The attempt is over; the user retries the upload explicitly.
		m.renderPending = false
		m.log.Warn("render trigger dropped, upload failed", "error", m.uploadErr)
		m.publish()
		return
	}

	m.renderPending = false
	req := m.pendingReq

	if m.uploadPhase == Uploaded && !m.ref.IsZero() {
		src := m.ref.URL
		req.InputProps.VideoSrc = &src
		if m.ref.Deletable() {
			bucket, key := m.ref.Bucket, m.ref.Key
			req.InputProps.S3Bucket = &bucket
			req.InputProps.S3Key = &key
		}
	}

	m.renderGen++
	gen := m.renderGen
	m.renderPhase = RenderSubmitting
	m.renderID = ""
	m.progress = 0
	m.outputURL = ""
	m.outputSize = 0
	m.renderErr = ""
	m.publish()

	go func() {
		res, err := m.rend.SubmitRender(ctx, req)
		m.post(ctx, submitSettledMsg{gen: gen, res: res, err: err})
	}()
}

func (m *Machine) handleUploadSettled(ctx context.Context, msg uploadSettledMsg) {
	if msg.gen != m.uploadGen {
		// Superseded upload; its outcome is observed and discarded.
		m.log.Info("discarding superseded upload result", "gen", msg.gen)
		return
	}

	if msg.err != nil {
		m.uploadPhase = UploadFailed
		m.uploadErr = msg.err
		m.log.WithError(msg.err).Warn("upload failed")
	} else {
		m.uploadPhase = Uploaded
		m.ref = msg.ref
		m.log.Info("upload complete", "key", msg.ref.Key, "bucket", msg.ref.Bucket)
	}
	m.publish()

	m.evaluateRender(ctx)
}

func (m *Machine) handleSubmitSettled(ctx context.Context, msg submitSettledMsg) {
	if msg.gen != m.renderGen {
		return
	}

	if msg.err != nil {
		m.renderPhase = RenderFailed
		m.renderErr = msg.err.Error()
		m.log.WithError(msg.err).Warn("render submission failed")
		m.finishAttempt(ctx)
		return
	}

	m.renderPhase = RenderInProgress
	m.renderID = msg.res.RenderID
	m.log.Info("render submitted", "render_id", msg.res.RenderID)
	m.publish()

	go m.poll(ctx, msg.gen, msg.res.RenderID)
}

// poll follows one render to its terminal state. The sequence it produces is
// finite: it stops at done or error, or when ctx is canceled.
func (m *Machine) poll(ctx context.Context, gen int, renderID string) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := m.rend.Progress(ctx, renderID)
		m.post(ctx, progressMsg{gen: gen, res: res, err: err})
		if err == nil && (res.Done() || res.Failed()) {
			return
		}
	}
}

func (m *Machine) handleProgress(ctx context.Context, msg progressMsg) {
	if msg.gen != m.renderGen || m.renderPhase != RenderInProgress {
		return
	}

	if msg.err != nil {
		// Transient poll failure; the poller keeps going.
		m.log.WithError(msg.err).Warn("progress poll failed", "render_id", m.renderID)
		return
	}

	switch {
	case msg.res.Done():
		m.renderPhase = RenderDone
		m.outputURL = msg.res.URL
		m.outputSize = msg.res.Size
		m.progress = 1
		m.log.Info("render done", "render_id", m.renderID, "url", m.outputURL, "size", m.outputSize)
		m.finishAttempt(ctx)

	case msg.res.Failed():
		m.renderPhase = RenderFailed
		m.renderErr = msg.res.Message
		m.log.Warn("render failed", "render_id", m.renderID, "error", m.renderErr)
		m.finishAttempt(ctx)

	default:
		if msg.res.Progress != nil && *msg.res.Progress > m.progress {
			m.progress = *msg.res.Progress
		}
		m.publish()
	}
}

// finishAttempt runs on entering a terminal render state. If the attempt
// holds an asset reference, it is handed to the cleaner exactly once and then
// cleared; the render outcome itself is already settled and is not affected
// by anything the cleaner does.
func (m *Machine) finishAttempt(ctx context.Context) {
	if !m.ref.IsZero() {
		ref := m.ref
		m.ref = models.AssetReference{}
		m.clean.Reconcile(ctx, ref)
	}
	m.publish()
}

func (m *Machine) post(ctx context.Context, msg message) {
	select {
	case m.msgs <- msg:
	case <-m.done:
	case <-ctx.Done():
	}
}

func (m *Machine) publish() {
	s := m.snapshot()
	for {
		select {
		case m.updates <- s:
			return
		default:
		}
		// Full buffer: drop the oldest snapshot, newer state wins.
		select {
		case <-m.updates:
		default:
		}
	}
}

func (m *Machine) snapshot() Status {
	s := Status{
		Upload:     m.uploadPhase,
		Render:     m.renderPhase,
		Progress:   m.progress,
		OutputURL:  m.outputURL,
		OutputSize: m.outputSize,
		RenderID:   m.renderID,
	}

	switch {
	case m.uploadPhase == UploadRequesting || m.uploadPhase == UploadTransferring:
		s.Display = DisplayUploading
	case m.renderPhase == RenderSubmitting || m.renderPhase == RenderInProgress:
		s.Display = DisplayRendering
	case m.renderPhase == RenderDone:
		s.Display = DisplayDone
	case m.renderPhase == RenderFailed:
		s.Display = DisplayError
		s.Message = m.renderErr
	case m.uploadPhase == UploadFailed:
		s.Display = DisplayError
		if m.uploadErr != nil {
			s.Message = m.uploadErr.Error()
		}
	default:
		s.Display = DisplayIdle
	}

	return s
}
