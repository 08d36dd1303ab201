package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/notify"
)

// SentMessage is one call recorded by RecordingDispatcher.
type SentMessage struct {
	Channel     models.Channel
	To          string
	Message     notify.Message
	Correlation notify.Correlation
}

// RecordingDispatcher is a notify.Dispatcher that keeps every send in memory.
// Channels listed in Fail return that error instead of succeeding.
type RecordingDispatcher struct {
	mu   sync.Mutex
	Sent []SentMessage
	Fail map[models.Channel]error
	// Unsupported channels report false from Supports.
	Unsupported map[models.Channel]bool
}

func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{
		Fail:        make(map[models.Channel]error),
		Unsupported: make(map[models.Channel]bool),
	}
}

func (d *RecordingDispatcher) Supports(channel models.Channel) bool {
	return !d.Unsupported[channel]
}

func (d *RecordingDispatcher) Send(ctx context.Context, channel models.Channel, to string, msg notify.Message, corr notify.Correlation) (notify.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Sent = append(d.Sent, SentMessage{Channel: channel, To: to, Message: msg, Correlation: corr})
	if err := d.Fail[channel]; err != nil {
		return notify.Result{}, err
	}
	return notify.Result{ProviderMessageID: fmt.Sprintf("test-%d", len(d.Sent))}, nil
}

// SentTo returns the recorded messages addressed to recipient.
func (d *RecordingDispatcher) SentTo(recipient string) []SentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []SentMessage
	for _, m := range d.Sent {
		if m.To == recipient {
			out = append(out, m)
		}
	}
	return out
}

func (d *RecordingDispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Sent)
}

func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = nil
}
