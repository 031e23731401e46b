package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/soaringjerry/Nuvio/internal/models"
)

type fakeGenerator struct {
	replies []string
	errs    []error
	calls   int
	seen    [][]*schema.Message
}

func (f *fakeGenerator) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	i := f.calls
	f.calls++
	f.seen = append(f.seen, input)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.replies) {
		content = f.replies[i]
	}
	return &schema.Message{Role: schema.Assistant, Content: content}, nil
}

func newTestClient(g generator, opts Options) (*Client, *[]time.Duration) {
	c := newClient(g, opts)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func thread(n int) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.ChatMessage{Role: role, Content: "m" + string(rune('a'+i))})
	}
	return out
}

func TestReplyReturnsModelContent(t *testing.T) {
	g := &fakeGenerator{replies: []string{"  That sounds hard. What happened?  "}}
	c, _ := newTestClient(g, Options{MaxRetries: 2})

	got, err := c.Reply(context.Background(), "rough day", nil, thread(3))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != "That sounds hard. What happened?" {
		t.Fatalf("unexpected reply %q", got)
	}
	if g.calls != 1 {
		t.Fatalf("expected one call, got %d", g.calls)
	}
}

func TestReplyRetriesOnRateLimit(t *testing.T) {
	g := &fakeGenerator{
		errs:    []error{errors.New("status 429: slow down"), errors.New("Too Many Requests")},
		replies: []string{"", "", "ok then"},
	}
	c, slept := newTestClient(g, Options{MaxRetries: 3})

	got, err := c.Reply(context.Background(), "hello", nil, thread(4))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != "ok then" {
		t.Fatalf("unexpected reply %q", got)
	}
	if g.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", g.calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("backoff %d: want %v got %v", i, d, (*slept)[i])
		}
	}
}

func TestReplyDoesNotRetryOtherErrors(t *testing.T) {
	g := &fakeGenerator{errs: []error{errors.New("invalid api key")}}
	c, slept := newTestClient(g, Options{MaxRetries: 3})

	if _, err := c.Reply(context.Background(), "hello", nil, thread(2)); err == nil {
		t.Fatalf("expected error")
	}
	if g.calls != 1 || len(*slept) != 0 {
		t.Fatalf("expected a single attempt, got calls=%d sleeps=%d", g.calls, len(*slept))
	}
}

func TestReplyFallsBackOnErrorWhenEnabled(t *testing.T) {
	g := &fakeGenerator{errs: []error{errors.New("upstream down")}}
	c, _ := newTestClient(g, Options{FallbackOnError: true})

	got, err := c.Reply(context.Background(), "I feel so stressed", nil, thread(4))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != overwhelmedReply {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestReplyFallsBackOnEmptyContent(t *testing.T) {
	g := &fakeGenerator{replies: []string{"   "}}
	c, _ := newTestClient(g, Options{})

	got, err := c.Reply(context.Background(), "hi", nil, thread(1))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != greetingReply {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestBuildMessagesTrimsHistory(t *testing.T) {
	c, _ := newTestClient(&fakeGenerator{}, Options{HistoryTurns: 2})
	history := thread(5)
	history = append(history, models.ChatMessage{Role: models.RoleUser, Content: "now"})

	msgs := c.buildMessages("now", &models.SentimentResult{TopEmotion: "sad"}, history)
	if len(msgs) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System || !strings.Contains(msgs[0].Content, "sad") {
		t.Fatalf("system prompt missing sentiment hint: %q", msgs[0].Content)
	}
	if msgs[1].Content != "md" || msgs[2].Content != "me" {
		t.Fatalf("unexpected history window: %q %q", msgs[1].Content, msgs[2].Content)
	}
	if msgs[3].Role != schema.User || msgs[3].Content != "now" {
		t.Fatalf("last message should be the user text, got %+v", msgs[3])
	}
}

func TestRuleBasedReplies(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		sentiment *models.SentimentResult
		history   int
		want      string
	}{
		{name: "first message", text: "hello", history: 1, want: greetingReply},
		{name: "overwhelmed", text: "Everything is overwhelming", history: 3, want: overwhelmedReply},
		{name: "sad", text: "meh", sentiment: &models.SentimentResult{TopEmotion: "sad"}, history: 3, want: heavyReply},
		{name: "happy", text: "nice", sentiment: &models.SentimentResult{TopEmotion: "happy"}, history: 3, want: brightReply},
		{name: "default", text: "just thinking", history: 3, want: defaultReply},
	}
	for _, tc := range cases {
		got, err := RuleBased{}.Reply(context.Background(), tc.text, tc.sentiment, thread(tc.history))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %q got %q", tc.name, tc.want, got)
		}
	}
}
