package monitoring

import (
	"time"

	"syncboard/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	connectionsActive *prometheus.GaugeVec
	roomsActive       prometheus.Gauge
	roomMembers       *prometheus.GaugeVec

	// Counters
	connectionsTotal       *prometheus.CounterVec
	handshakeRejections    *prometheus.CounterVec
	cursorEventsTotal      prometheus.Counter
	boardEventsTotal       prometheus.Counter
	notificationsDelivered prometheus.Counter
	protocolViolations     prometheus.Counter

	// Histograms
	handshakeDuration prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "syncboard_connections_active",
			Help: "Number of currently open WebSocket connections",
		}, []string{"channel"}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "syncboard_rooms_active",
			Help: "Number of rooms with at least one member",
		}),

		roomMembers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "syncboard_room_members",
			Help: "Number of members per room",
		}, []string{"room"}),

		connectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syncboard_connections_total",
			Help: "Total number of admitted WebSocket connections",
		}, []string{"channel"}),

		handshakeRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syncboard_handshake_rejections_total",
			Help: "Total number of rejected connection attempts",
		}, []string{"reason"}),

		cursorEventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syncboard_cursor_events_total",
			Help: "Total number of relayed cursor events",
		}),

		boardEventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syncboard_board_events_total",
			Help: "Total number of relayed board edit events",
		}),

		notificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syncboard_notifications_delivered_total",
			Help: "Total number of notifications delivered to personal rooms",
		}),

		protocolViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syncboard_protocol_violations_total",
			Help: "Total number of dropped malformed or unknown messages",
		}),

		handshakeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "syncboard_handshake_duration_seconds",
			Help:    "Duration of handshake authentication",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (p *PrometheusCollector) RecordConnected(channel domain.Channel) {
	p.connectionsActive.WithLabelValues(string(channel)).Inc()
	p.connectionsTotal.WithLabelValues(string(channel)).Inc()
}

func (p *PrometheusCollector) RecordDisconnected(channel domain.Channel) {
	p.connectionsActive.WithLabelValues(string(channel)).Dec()
}

func (p *PrometheusCollector) RecordHandshakeRejected(reason string) {
	p.handshakeRejections.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) ObserveHandshakeDuration(d time.Duration) {
	p.handshakeDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) SetRoomCount(count int) {
	p.roomsActive.Set(float64(count))
}

func (p *PrometheusCollector) SetRoomMembers(room domain.RoomKey, count int) {
	if count <= 0 {
		p.roomMembers.DeleteLabelValues(string(room))
		return
	}
	p.roomMembers.WithLabelValues(string(room)).Set(float64(count))
}

func (p *PrometheusCollector) RecordCursorEvent() {
	p.cursorEventsTotal.Inc()
}

func (p *PrometheusCollector) RecordBoardEvent() {
	p.boardEventsTotal.Inc()
}

func (p *PrometheusCollector) RecordNotificationsDelivered(count int) {
	p.notificationsDelivered.Add(float64(count))
}

func (p *PrometheusCollector) RecordProtocolViolation() {
	p.protocolViolations.Inc()
}
