package metrics

import "time"

// ObserveItem records one item render. Its signature matches dq.Observer.
func ObserveItem(pkg, item string, d time.Duration, err error) {
	itemRenderSeconds.WithLabelValues(pkg, item).Observe(d.Seconds())
	if err != nil {
		itemRenderFailures.WithLabelValues(pkg, item).Inc()
	}
}

// ObservePage counts one page render; status is "ok", "not_found" or "error".
func ObservePage(pkg, status string) {
	pageRenders.WithLabelValues(pkg, status).Inc()
}
