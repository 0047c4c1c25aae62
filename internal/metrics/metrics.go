package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	partiesCreated prometheus.Counter
	partiesEnded   prometheus.Counter
	chatMessages   prometheus.Counter
	invitesSent    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		partiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_parties_created_total",
			Help: "Number of parties created.",
		}),
		partiesEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_parties_ended_total",
			Help: "Number of parties ended.",
		}),
		chatMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_chat_messages_total",
			Help: "Number of chat messages appended.",
		}),
		invitesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_invites_sent_total",
			Help: "Number of invite notifications delivered.",
		}),
	}
}

// Nil receivers are allowed so tests can wire a service without metrics.

func (m *Metrics) IncPartiesCreated() {
	if m != nil {
		m.partiesCreated.Inc()
	}
}

func (m *Metrics) IncPartiesEnded() {
	if m != nil {
		m.partiesEnded.Inc()
	}
}

func (m *Metrics) IncChatMessages() {
	if m != nil {
		m.chatMessages.Inc()
	}
}

func (m *Metrics) IncInvitesSent() {
	if m != nil {
		m.invitesSent.Inc()
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
