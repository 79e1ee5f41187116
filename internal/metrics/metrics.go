package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) {
	log = l
}

var (
	// Monitor loop
	Ticks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_battery_ticks_total",
		Help: "Number of monitor ticks by outcome",
	}, []string{"outcome"})

	SamplesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vr_battery_samples_total",
		Help: "Number of device samples read from the runtime",
	})

	TrackedDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vr_battery_tracked_devices",
		Help: "Number of devices currently tracked",
	})

	DischargeStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_battery_discharge_starts_total",
		Help: "Number of detected discharge starts, by whether the device was muted",
	}, []string{"muted"})

	RuntimeConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vr_battery_runtime_connects_total",
		Help: "Number of times a connection to the VR runtime was made",
	})

	// Notifications
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_battery_notifications_total",
		Help: "Notification deliveries by transport and status",
	}, []string{"transport", "status"})

	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_battery_notifications_dropped_total",
		Help: "Notifications dropped because a transport queue was full",
	}, []string{"transport"})

	NotificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vr_battery_notification_duration_seconds",
		Help:    "Time taken to deliver a notification",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"transport"})
)

// Serve exposes the metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("Serving metrics on %s/metrics", addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
