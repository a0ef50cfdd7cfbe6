package service

import "sync"

// ChangeKind names which slice of observable state changed.
type ChangeKind string

const (
	ChangeCatalog      ChangeKind = "CATALOG"
	ChangeEntitlements ChangeKind = "ENTITLEMENTS"
	ChangePending      ChangeKind = "PENDING"
	ChangeStatus       ChangeKind = "STATUS"
	ChangeBalances     ChangeKind = "BALANCES"
)

// notifier is a minimal broadcast fan-out. Sends never block: a subscriber
// that falls behind misses events and is expected to re-read state.
type notifier struct {
	mu   sync.Mutex
	subs []chan ChangeKind
}

func (n *notifier) subscribe() <-chan ChangeKind {
	ch := make(chan ChangeKind, 16)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

func (n *notifier) publish(kind ChangeKind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- kind:
		default:
		}
	}
}
