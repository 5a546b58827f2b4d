package notify

import (
	"context"
	"log"
	"sync"
)

// LogNotifier prints messages instead of sending them, links included. It is
// only selected with NOTIFIER=log and remembers what it sent.
type LogNotifier struct {
	mu   sync.Mutex
	Sent []Message
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.mu.Lock()
	n.Sent = append(n.Sent, msg)
	n.mu.Unlock()
	log.Printf("[notify] to=%s subject=%q\n%s", msg.To, msg.Subject, msg.HTML)
	return nil
}

func (n *LogNotifier) Last() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Sent) == 0 {
		return Message{}, false
	}
	return n.Sent[len(n.Sent)-1], true
}
