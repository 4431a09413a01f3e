package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Twilio sends SMS through the Twilio REST API.
type Twilio struct {
	client *twilio.RestClient
	from   string
}

func NewTwilio(accountSID, authToken, from string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Twilio{client: client, from: from}
}

func (t *Twilio) Send(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid != nil {
		slog.Debug("sms sent", "sid", *resp.Sid)
	}
	return nil
}

type message struct {
	to   string
	body string
}

// Queue hands follower notifications to a single background worker. It
// never blocks the caller: when the buffer is full the message is dropped.
type Queue struct {
	sender Sender
	tasks  chan message
}

func NewQueue(sender Sender, size int) *Queue {
	return &Queue{sender: sender, tasks: make(chan message, size)}
}

// NewFollower queues an SMS for following if they have a phone number.
func (q *Queue) NewFollower(ctx context.Context, follower, following models.User) {
	if following.Phone == "" {
		return
	}

	m := message{
		to:   following.Phone,
		body: fmt.Sprintf("%s started following you on CopyMyPrompt. You now have %d followers.", follower.Username, following.FollowersCount),
	}

	select {
	case q.tasks <- m:
	default:
		slog.WarnContext(ctx, "notification queue full, dropping message", "user_id", following.ID)
	}
}

// Run delivers queued messages until ctx is cancelled, then drains what is
// left in the buffer and returns.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case m := <-q.tasks:
			q.deliver(ctx, m)
		case <-ctx.Done():
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	ctx := context.Background()
	for {
		select {
		case m := <-q.tasks:
			q.deliver(ctx, m)
		default:
			return
		}
	}
}

func (q *Queue) deliver(ctx context.Context, m message) {
	if err := q.sender.Send(ctx, m.to, m.body); err != nil {
		slog.ErrorContext(ctx, "failed to send notification", "to", m.to, "error", err)
	}
}
