package internal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"checkout/entity"
	"checkout/services"
)

// FrameState tracks one payment attempt through the embedded-frame
// handshake.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAwaitingReady
	FrameFormReady
	FrameSubmitting
	FrameSucceeded
	FrameFailed
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAwaitingReady:
		return "awaiting_ready"
	case FrameFormReady:
		return "form_ready"
	case FrameSubmitting:
		return "submitting"
	case FrameSucceeded:
		return "succeeded"
	case FrameFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the state ends the attempt.
func (s FrameState) Terminal() bool {
	return s == FrameSucceeded || s == FrameFailed
}

// SubmitFailedCode is surfaced to the error callback when the gateway
// navigates to the exception URL.
const SubmitFailedCode = "SUBMIT_FAILED"

// FrameController drives the cross-frame message protocol for a single
// payment attempt. Messages from unlisted origins or without the
// flexMsg discriminant are dropped before interpretation: unrelated
// traffic shares the same message channel.
//
// One attempt per controller instance; a remount for a completed order
// restores the Succeeded state from the persisted snapshot instead of
// restarting the flow.
type FrameController struct {
	mu              sync.Mutex
	state           FrameState
	orderId         string
	acceptPrefix    string
	exceptionPrefix string
	origins         []string
	height          int
	errorCode       string
	session         *entity.PaymentSessionSnapshot
	database        services.Database
	logger          services.LogHandler
	onError         func(code string)
}

func NewFrameController(orderId, acceptPrefix, exceptionPrefix string, origins []string, database services.Database, logger services.LogHandler) *FrameController {
	return &FrameController{
		state:           FrameIdle,
		orderId:         orderId,
		acceptPrefix:    acceptPrefix,
		exceptionPrefix: exceptionPrefix,
		origins:         origins,
		database:        database,
		logger:          logger,
	}
}

// SetErrorCallback registers the handler invoked with SubmitFailedCode
// on a terminal failure.
func (c *FrameController) SetErrorCallback(callback func(code string)) {
	c.onError = callback
}

// Start begins the attempt. If a completed snapshot for this order is
// already persisted, the controller re-enters Succeeded without
// re-issuing the redirect and reports restored=true. Otherwise the
// caller loads the redirect URL into the frame and the controller
// waits for the ready message.
func (c *FrameController) Start(ctx context.Context) (restored bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != FrameIdle {
		return false
	}

	if c.database != nil {
		snapshot, err := c.database.GetSnapshot(ctx, c.orderId)
		if err == nil && snapshot.Done() {
			c.session = snapshot
			c.state = FrameSucceeded
			c.logger.Info(fmt.Sprintf("order %s: restored completed session", c.orderId))
			return true
		}
	}

	c.state = FrameAwaitingReady
	return false
}

// Handle processes one raw message from the frame channel. Messages
// failing the origin or shape filter are dropped silently; state
// transitions follow the protocol and anything else is ignored.
func (c *FrameController) Handle(ctx context.Context, raw []byte, origin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.originAllowed(origin) {
		c.logger.Warn(fmt.Sprintf("order %s: dropped message from origin %s", c.orderId, origin))
		return nil
	}

	msg, err := entity.DecodeFrameMessage(raw)
	if err != nil {
		// unrelated message on the shared channel
		c.logger.Debug(fmt.Sprintf("order %s: ignored message: %v", c.orderId, err))
		return nil
	}

	switch msg.FlexMsg {
	case entity.FrameSize:
		if !c.state.Terminal() {
			c.height = msg.Height
		}
	case entity.FrameReady:
		if c.state == FrameAwaitingReady {
			c.state = FrameFormReady
		}
	case entity.FrameNavigate:
		if c.state == FrameSubmitting {
			return c.handleNavigate(ctx, msg.Href)
		}
	}
	return nil
}

// Submit moves the controller into Submitting and returns the payload
// to post into the frame. Only valid from FormReady.
func (c *FrameController) Submit() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != FrameFormReady {
		return nil, fmt.Errorf("submit in state %s", c.state)
	}
	c.state = FrameSubmitting
	return entity.SubmitMessage(), nil
}

// Retry returns a failed attempt to FormReady for an explicit
// user-initiated retry. The controller never retries on its own.
func (c *FrameController) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != FrameFailed {
		return fmt.Errorf("retry in state %s", c.state)
	}
	c.state = FrameFormReady
	c.errorCode = ""
	return nil
}

func (c *FrameController) State() FrameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *FrameController) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *FrameController) ErrorCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorCode
}

// Session returns the snapshot captured on success, nil before then.
func (c *FrameController) Session() *entity.PaymentSessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *FrameController) originAllowed(origin string) bool {
	if len(c.origins) == 0 {
		return true
	}
	for _, allowed := range c.origins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// handleNavigate classifies a terminal navigation. An href matching
// neither redirect prefix is not terminal for this protocol and leaves
// the state unchanged.
func (c *FrameController) handleNavigate(ctx context.Context, href string) error {
	switch {
	case c.acceptPrefix != "" && strings.HasPrefix(href, c.acceptPrefix):
		return c.complete(ctx, href)
	case c.exceptionPrefix != "" && strings.HasPrefix(href, c.exceptionPrefix):
		c.state = FrameFailed
		c.errorCode = SubmitFailedCode
		c.logger.Warn(fmt.Sprintf("order %s: gateway reported failure", c.orderId))
		if c.onError != nil {
			c.onError(SubmitFailedCode)
		}
	}
	return nil
}

func (c *FrameController) complete(ctx context.Context, href string) error {
	target, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("parse accept redirect: %w", err)
	}
	query := target.Query()

	snapshot := &entity.PaymentSessionSnapshot{
		OrderId: query.Get(entity.ReturnOrderId),
		AliasId: query.Get(entity.ReturnAliasId),
		ShaSign: query.Get(entity.ReturnShaSign),
		Method:  "card",
		Outcome: entity.OutcomeSucceeded,
		SavedAt: time.Now(),
	}
	if snapshot.OrderId == "" {
		snapshot.OrderId = c.orderId
	}

	if c.database != nil {
		if err := c.database.SaveSnapshot(ctx, snapshot); err != nil {
			c.logger.Error(fmt.Sprintf("order %s: save snapshot", c.orderId), err)
		}
	}

	c.session = snapshot
	c.state = FrameSucceeded
	c.logger.Info(fmt.Sprintf("order %s: payment frame completed", c.orderId))
	return nil
}
