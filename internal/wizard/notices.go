package wizard

import (
	"strings"
	"sync"
)

// noticeBoard holds transient per-session messages for the UI. Notices live
// in memory only and vanish with the process.
type noticeBoard struct {
	mu      sync.Mutex
	notices map[string][]string
}

func newNoticeBoard() *noticeBoard {
	return &noticeBoard{notices: make(map[string][]string)}
}

func (b *noticeBoard) add(id, text string) {
	text = strings.TrimSpace(text)
	if id == "" || text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices[id] = append(b.notices[id], text)
}

func (b *noticeBoard) list(id string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.notices[id]...)
}

func (b *noticeBoard) clear(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.notices, id)
}
