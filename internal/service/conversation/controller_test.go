package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
	"github.com/zhouzirui/advice-chat/internal/service/advice"
)

type adviceResult struct {
	advice string
	err    error
}

type pendingCall struct {
	ctx   context.Context
	text  string
	reply chan adviceResult
}

// fakeAdvice parks every call until the test answers it.
type fakeAdvice struct {
	calls chan *pendingCall
}

func newFakeAdvice() *fakeAdvice {
	return &fakeAdvice{calls: make(chan *pendingCall, 16)}
}

func (f *fakeAdvice) GetAdvice(ctx context.Context, text string) (string, error) {
	call := &pendingCall{ctx: ctx, text: text, reply: make(chan adviceResult, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.advice, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeAdvice) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for advice request")
		return nil
	}
}

func newTestController(t *testing.T, delay time.Duration) (*Controller, *fakeAdvice) {
	t.Helper()
	fake := newFakeAdvice()
	c := NewController(fake, Options{ConfirmationDelay: delay})
	t.Cleanup(c.Close)
	return c, fake
}

func waitFor(t *testing.T, c *Controller, cond func(chat.State) bool) chat.State {
	t.Helper()
	var last chat.State
	require.Eventually(t, func() bool {
		last = c.Snapshot()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestSubmitAppendsUserMessageBeforeResponse(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	require.True(t, c.Submit("Where to in May?"))

	state := c.Snapshot()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, chat.UserMessage("Where to in May?"), state.Messages[0])
	assert.True(t, state.IsTyping)
	assert.True(t, state.MessageSent)

	call := fake.next(t)
	assert.Equal(t, "Where to in May?", call.text)
	assert.NotEmpty(t, advice.RequestIDFromContext(call.ctx))
}

func TestSubmitBlankTextIsIgnored(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.False(t, c.Submit(text))
	}

	state := c.Snapshot()
	assert.Empty(t, state.Messages)
	assert.False(t, state.IsTyping)
	assert.False(t, state.MessageSent)
	assert.Zero(t, state.Revision)
	assert.Empty(t, fake.calls)
}

func TestSubmitSuccessAppendsBotReplyAndClearsInput(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	c.SetInput("pack list for Iceland")
	require.True(t, c.Submit("pack list for Iceland"))

	fake.next(t).reply <- adviceResult{advice: "Layers and a rain shell."}

	state := waitFor(t, c, func(s chat.State) bool { return !s.IsTyping })
	assert.Equal(t, []chat.Message{
		chat.UserMessage("pack list for Iceland"),
		chat.BotMessage("Layers and a rain shell."),
	}, state.Messages)
	assert.Equal(t, "", state.PendingInput)
	assert.Equal(t, uint64(2), state.Revision)
}

func TestSubmitFailureKeepsInputAndAddsNoReply(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	c.SetInput("visa for Japan?")
	require.True(t, c.Submit("visa for Japan?"))

	fake.next(t).reply <- adviceResult{err: &advice.RequestFailure{RequestID: "x", StatusCode: 500}}

	state := waitFor(t, c, func(s chat.State) bool { return !s.IsTyping })
	assert.Equal(t, []chat.Message{chat.UserMessage("visa for Japan?")}, state.Messages)
	assert.Equal(t, "visa for Japan?", state.PendingInput)
}

func TestMessageSentClearsAfterDelayRegardlessOfOutcome(t *testing.T) {
	c, fake := newTestController(t, 30*time.Millisecond)

	start := time.Now()
	require.True(t, c.Submit("hello"))
	assert.True(t, c.Snapshot().MessageSent)

	// the request stays in flight the whole time
	call := fake.next(t)

	state := waitFor(t, c, func(s chat.State) bool { return !s.MessageSent })
	assert.True(t, state.IsTyping)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	call.reply <- adviceResult{advice: "hi"}
	waitFor(t, c, func(s chat.State) bool { return !s.IsTyping })
}

func TestClearConversationStartsFreshSequence(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	require.True(t, c.Submit("one"))
	fake.next(t).reply <- adviceResult{advice: "reply one"}
	waitFor(t, c, func(s chat.State) bool { return len(s.Messages) == 2 })

	c.SetInput("draft")
	c.ClearConversation()
	state := c.Snapshot()
	assert.Empty(t, state.Messages)
	assert.Equal(t, "draft", state.PendingInput)

	require.True(t, c.Submit("two"))
	state = c.Snapshot()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, chat.UserMessage("two"), state.Messages[0])

	fake.next(t).reply <- adviceResult{advice: "reply two"}
	waitFor(t, c, func(s chat.State) bool { return len(s.Messages) == 2 })
}

func TestClearConversationLeavesInFlightRequestAlone(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	require.True(t, c.Submit("question"))
	call := fake.next(t)

	c.ClearConversation()
	assert.True(t, c.Snapshot().IsTyping)

	call.reply <- adviceResult{advice: "late answer"}
	state := waitFor(t, c, func(s chat.State) bool { return !s.IsTyping })
	assert.Equal(t, []chat.Message{chat.BotMessage("late answer")}, state.Messages)
}

func TestConcurrentSubmitsResolveInCompletionOrder(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	require.True(t, c.Submit("T1"))
	first := fake.next(t)
	require.True(t, c.Submit("T2"))
	second := fake.next(t)

	second.reply <- adviceResult{advice: "A2"}
	waitFor(t, c, func(s chat.State) bool { return len(s.Messages) == 3 })

	first.reply <- adviceResult{advice: "A1"}
	state := waitFor(t, c, func(s chat.State) bool { return len(s.Messages) == 4 })

	assert.Equal(t, []chat.Message{
		chat.UserMessage("T1"),
		chat.UserMessage("T2"),
		chat.BotMessage("A2"),
		chat.BotMessage("A1"),
	}, state.Messages)
}

func TestSubscribeStreamsSnapshots(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	updates, cancel := c.Subscribe()
	defer cancel()

	initial := <-updates
	assert.Empty(t, initial.Messages)

	require.True(t, c.Submit("hello"))
	fake.next(t).reply <- adviceResult{advice: "hey"}

	require.Eventually(t, func() bool {
		select {
		case s := <-updates:
			return len(s.Messages) == 2 && !s.IsTyping
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	for range updates {
	}
}

func TestSetInputRevisions(t *testing.T) {
	c, _ := newTestController(t, time.Minute)

	assert.Equal(t, uint64(1), c.SetInput("a"))
	assert.Equal(t, uint64(1), c.SetInput("a"))
	assert.Equal(t, uint64(2), c.SetInput("ab"))
	assert.Equal(t, "ab", c.Snapshot().PendingInput)
}

func TestCloseDropsLateCompletionsAndClosesSubscribers(t *testing.T) {
	fake := newFakeAdvice()
	c := NewController(fake, Options{ConfirmationDelay: 20 * time.Millisecond})

	updates, _ := c.Subscribe()
	<-updates

	require.True(t, c.Submit("bye"))
	call := fake.next(t)

	c.Close()

	assert.ErrorIs(t, call.ctx.Err(), context.Canceled)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}

	// drain whatever was buffered, then the channel must be closed
	for range updates {
	}

	assert.False(t, c.Submit("ignored"))
	assert.Empty(t, c.Snapshot().Messages)

	// a confirmation timer firing after teardown must be harmless
	time.Sleep(40 * time.Millisecond)
	c.Close()
}

func TestFailureIsLoggedNotSurfaced(t *testing.T) {
	c, fake := newTestController(t, time.Minute)

	require.True(t, c.Submit("anything"))
	fake.next(t).reply <- adviceResult{err: errors.New("connection refused")}

	state := waitFor(t, c, func(s chat.State) bool { return !s.IsTyping })
	for _, m := range state.Messages {
		assert.Equal(t, chat.RoleUser, m.Role)
	}
}
