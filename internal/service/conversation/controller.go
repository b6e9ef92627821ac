package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
	"github.com/zhouzirui/advice-chat/internal/service/advice"
)

// DefaultConfirmationDelay is how long the "message sent" flag stays up.
const DefaultConfirmationDelay = 2 * time.Second

// AdviceClient is the outbound dependency of a Controller.
type AdviceClient interface {
	GetAdvice(ctx context.Context, message string) (string, error)
}

// Options tunes a Controller.
type Options struct {
	ConfirmationDelay time.Duration
	Logger            *zerolog.Logger
}

// Controller owns one conversation. All state is held by a single owner
// goroutine; public methods and request goroutines post mutations to it.
type Controller struct {
	client AdviceClient
	delay  time.Duration
	logger zerolog.Logger

	ops       chan func(*loopState)
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	requests  sync.WaitGroup

	// ctx is the parent of every outbound request and is cancelled on Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// loopState is only touched from the owner goroutine.
type loopState struct {
	state       chat.State
	subscribers map[int]chan chat.State
	nextSubID   int
	timers      map[*time.Timer]struct{}
	changed     bool
}

// NewController starts the owner goroutine. Call Close to release it.
func NewController(client AdviceClient, opts Options) *Controller {
	delay := opts.ConfirmationDelay
	if delay <= 0 {
		delay = DefaultConfirmationDelay
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		client: client,
		delay:  delay,
		logger: logger,
		ops:    make(chan func(*loopState)),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.exited)

	ls := &loopState{
		state:       chat.State{Messages: []chat.Message{}},
		subscribers: make(map[int]chan chat.State),
		timers:      make(map[*time.Timer]struct{}),
	}

	for {
		select {
		case <-c.done:
			for t := range ls.timers {
				t.Stop()
			}
			for id, ch := range ls.subscribers {
				close(ch)
				delete(ls.subscribers, id)
			}
			return
		case op := <-c.ops:
			op(ls)
			if ls.changed {
				ls.changed = false
				ls.publish()
			}
		}
	}
}

// post hands op to the owner goroutine and waits until it has run.
// It reports false once the controller is closed.
func (c *Controller) post(op func(*loopState)) bool {
	applied := make(chan struct{})
	wrapped := func(ls *loopState) {
		op(ls)
		close(applied)
	}

	select {
	case c.ops <- wrapped:
	case <-c.done:
		return false
	}

	// the owner runs every op it receives to completion
	<-applied
	return true
}

// Submit appends a user message and starts one advice request for it.
// Blank text is ignored and Submit reports false. When Submit returns true
// the user message, the typing flag and the sent confirmation are already in
// place; the request itself completes in the background.
func (c *Controller) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	requestID := uuid.NewString()
	return c.post(func(ls *loopState) {
		ls.state.Messages = append(ls.state.Messages, chat.UserMessage(text))
		ls.state.Revision++
		ls.state.IsTyping = true
		ls.state.MessageSent = true
		ls.changed = true

		c.scheduleSentReset(ls)

		c.requests.Add(1)
		go c.request(requestID, text)
	})
}

// scheduleSentReset arms one independent timer per submit.
func (c *Controller) scheduleSentReset(ls *loopState) {
	var timer *time.Timer
	timer = time.AfterFunc(c.delay, func() {
		c.post(func(ls *loopState) {
			delete(ls.timers, timer)
			if ls.state.MessageSent {
				ls.state.MessageSent = false
				ls.changed = true
			}
		})
	})
	ls.timers[timer] = struct{}{}
}

func (c *Controller) request(requestID, text string) {
	defer c.requests.Done()

	logger := c.logger.With().Str("request_id", requestID).Logger()
	ctx := advice.ContextWithRequestID(c.ctx, requestID)

	reply, err := c.client.GetAdvice(ctx, text)
	if err != nil {
		if c.ctx.Err() == nil {
			logger.Error().Err(err).Msg("error fetching advice")
		}
	} else {
		logger.Debug().Int("length", len(reply)).Msg("advice received")
	}

	c.post(func(ls *loopState) {
		if err == nil {
			ls.state.Messages = append(ls.state.Messages, chat.BotMessage(reply))
			ls.state.Revision++
			if ls.state.PendingInput != "" {
				ls.state.PendingInput = ""
				ls.state.InputRevision++
			}
		}
		ls.state.IsTyping = false
		ls.changed = true
	})
}

// SetInput records the text currently typed into the view and returns the
// resulting input revision. It returns 0 once the controller is closed.
func (c *Controller) SetInput(text string) uint64 {
	var rev uint64
	c.post(func(ls *loopState) {
		if ls.state.PendingInput != text {
			ls.state.PendingInput = text
			ls.state.InputRevision++
			ls.changed = true
		}
		rev = ls.state.InputRevision
	})
	return rev
}

// ClearConversation empties the message sequence. Pending input, the typing
// flag and in-flight requests are left alone.
func (c *Controller) ClearConversation() {
	c.post(func(ls *loopState) {
		ls.state.Messages = []chat.Message{}
		ls.state.Revision++
		ls.changed = true
	})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() chat.State {
	var snap chat.State
	if !c.post(func(ls *loopState) { snap = ls.state.Clone() }) {
		return chat.State{Messages: []chat.Message{}}
	}
	return snap
}

// Subscribe returns a channel that receives the current state immediately
// and again after every change. Slow readers only ever see the newest
// snapshot. The channel is closed by the returned cancel func or by Close.
func (c *Controller) Subscribe() (<-chan chat.State, func()) {
	ch := make(chan chat.State, 1)
	var id int

	ok := c.post(func(ls *loopState) {
		id = ls.nextSubID
		ls.nextSubID++
		ls.subscribers[id] = ch
		ch <- ls.state.Clone()
	})
	if !ok {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.post(func(ls *loopState) {
				if sub, exists := ls.subscribers[id]; exists {
					delete(ls.subscribers, id)
					close(sub)
				}
			})
		})
	}
	return ch, cancel
}

// Close tears the controller down: timers stop, in-flight requests are
// cancelled and their results dropped, subscriber channels close.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
	<-c.exited
	c.requests.Wait()
}

// Done is closed once Close has been called.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (ls *loopState) publish() {
	for _, ch := range ls.subscribers {
		snap := ls.state.Clone()
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so the reader sees the newest one
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
