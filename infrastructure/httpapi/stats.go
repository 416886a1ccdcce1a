package httpapi

import (
	"net/http"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"

	"github.com/demetriomjr/real-state-crm/domain/chat"
)

type statsResponse struct {
	ActiveSubscriptions int            `json:"activeSubscriptions"`
	PendingMessages     int            `json:"pendingMessages"`
	ChatSubscribers     []string       `json:"chatSubscribers,omitempty"`
	RecentMessages      []chat.Message `json:"recentMessages,omitempty"`
	Goroutines          int            `json:"goroutines"`
	RSSBytes            uint64         `json:"rssBytes"`
	CPUPercent          float64        `json:"cpuPercent"`
}

// handleStats serves the operator snapshot: delivery-core gauges plus
// process health. It is deliberately outside the auth tree; deployments
// keep /internal off the public ingress.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := statsResponse{
		ActiveSubscriptions: s.hub.ActiveCount(),
		PendingMessages:     s.hub.PendingCount(),
		Goroutines:          runtime.NumGoroutine(),
	}
	if chatID := r.URL.Query().Get("chat"); chatID != "" {
		stats.ChatSubscribers = s.hub.SubscribersForChat(chatID)
		stats.RecentMessages = s.recent.ForChat(chatID)
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			stats.CPUPercent = cpuPercent
		}
	}

	s.writeJSON(w, http.StatusOK, stats)
}
