// Package metrics upgrades the teacher's hand-rolled JSON counters to real
// Prometheus instruments, exposed at /metrics via promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the server exposes. It implements
// upload.Recorder directly so the upload manager can be handed one without
// either package importing the other's concrete type.
type Metrics struct {
	ConnectionsActive  prometheus.Gauge
	RoomsCreated       prometheus.Counter
	RoomsActive        prometheus.Gauge
	ParticipantsActive prometheus.Gauge
	ChatMessages       prometheus.Counter
	UploadsActive      prometheus.Gauge
	UploadsTotal       prometheus.Counter
	UploadBytesTotal   prometheus.Counter
	SignalsRelayed     prometheus.Counter
	RejectedJoins      *prometheus.CounterVec
	DroppedEvents      *prometheus.CounterVec
}

// New registers every instrument against reg and returns the bundle. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across test runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meetingd_connections_active",
			Help: "Number of currently open websocket connections.",
		}),
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetingd_rooms_created_total",
			Help: "Number of rooms minted via the create-room API.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meetingd_rooms_active",
			Help: "Number of rooms currently registered (minted and not yet emptied).",
		}),
		ChatMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetingd_chat_messages_total",
			Help: "Number of chat messages appended across all rooms.",
		}),
		UploadsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meetingd_uploads_active",
			Help: "Number of in-flight chunked uploads.",
		}),
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetingd_uploads_total",
			Help: "Number of uploads started, successful or not.",
		}),
		UploadBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetingd_upload_bytes_total",
			Help: "Total bytes received across all upload chunks.",
		}),
		SignalsRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetingd_signals_relayed_total",
			Help: "Number of offer/answer signaling messages relayed.",
		}),
		ParticipantsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meetingd_participants_active",
			Help: "Number of participants currently joined across all rooms.",
		}),
		RejectedJoins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meetingd_joins_rejected_total",
			Help: "Number of join-room attempts rejected, labeled by reason.",
		}, []string{"reason"}),
		DroppedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meetingd_events_dropped_total",
			Help: "Number of inbound or outbound events dropped, labeled by reason.",
		}, []string{"reason"}),
	}
}

// RelaySignal implements signaling.Recorder.
func (m *Metrics) RelaySignal() {
	m.SignalsRelayed.Inc()
}

// RoomOpened implements room.Recorder.
func (m *Metrics) RoomOpened() {
	m.RoomsCreated.Inc()
	m.RoomsActive.Inc()
}

// RoomClosed implements room.Recorder.
func (m *Metrics) RoomClosed() {
	m.RoomsActive.Dec()
}

// UploadStarted implements upload.Recorder.
func (m *Metrics) UploadStarted() {
	m.UploadsActive.Inc()
	m.UploadsTotal.Inc()
}

// UploadClosed implements upload.Recorder.
func (m *Metrics) UploadClosed() {
	m.UploadsActive.Dec()
}

// BytesReceived implements upload.Recorder.
func (m *Metrics) BytesReceived(n int64) {
	m.UploadBytesTotal.Add(float64(n))
}

// MessagePosted implements chat.Recorder.
func (m *Metrics) MessagePosted() {
	m.ChatMessages.Inc()
}

// ParticipantJoined implements room.Recorder.
func (m *Metrics) ParticipantJoined() {
	m.ParticipantsActive.Inc()
}

// ParticipantLeft implements room.Recorder.
func (m *Metrics) ParticipantLeft() {
	m.ParticipantsActive.Dec()
}

// JoinRejected implements room.Recorder.
func (m *Metrics) JoinRejected(reason string) {
	m.RejectedJoins.WithLabelValues(reason).Inc()
}

// EventDropped implements transport.Recorder.
func (m *Metrics) EventDropped(reason string) {
	m.DroppedEvents.WithLabelValues(reason).Inc()
}

// Handler serves the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
