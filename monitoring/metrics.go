package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	joinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_joins_total",
			Help: "Waitlist join requests by resulting entry status",
		},
		[]string{"event_id", "status"},
	)

	offersIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_offers_issued_total",
			Help: "Ticket offers issued, by trigger (join or promotion)",
		},
		[]string{"event_id", "trigger"},
	)

	offersExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_offers_expired_total",
			Help: "Ticket offers that timed out",
		},
		[]string{"event_id"},
	)

	offersReleased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_offers_released_total",
			Help: "Ticket offers explicitly released back to the queue",
		},
		[]string{"event_id"},
	)

	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_purchases_total",
			Help: "Offers converted into sold tickets",
		},
		[]string{"event_id"},
	)

	waitingDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waitlist_waiting_depth",
			Help: "Current number of waiting entries per event",
		},
		[]string{"event_id"},
	)

	offerHoldDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waitlist_offer_hold_seconds",
			Help:    "Time between offer creation and purchase",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"event_id"},
	)
)

func TrackJoin(eventID, entryStatus string) {
	joinsTotal.WithLabelValues(eventID, entryStatus).Inc()
}

func TrackOfferIssued(eventID, trigger string) {
	offersIssued.WithLabelValues(eventID, trigger).Inc()
}

func TrackOfferExpired(eventID string) {
	offersExpired.WithLabelValues(eventID).Inc()
}

func TrackOfferReleased(eventID string) {
	offersReleased.WithLabelValues(eventID).Inc()
}

func TrackPurchase(eventID string, heldFor time.Duration) {
	purchasesTotal.WithLabelValues(eventID).Inc()
	if heldFor > 0 {
		offerHoldDuration.WithLabelValues(eventID).Observe(heldFor.Seconds())
	}
}

func SetWaitingDepth(eventID string, depth int) {
	waitingDepth.WithLabelValues(eventID).Set(float64(depth))
}
