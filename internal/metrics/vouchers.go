package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(vouchersImportedTotal, voucherTransitionsTotal, vouchersPrintedTotal) }

// Voucher state transitions.
const (
	TransitionUsed   = "used"
	TransitionUnused = "unused"
)

var vouchersImportedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vouchers_imported_total",
		Help: "Vouchers persisted from uploaded files.",
	},
)

var voucherTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "voucher_transitions_total",
		Help: "Redemption state changes applied to vouchers.",
	},
	[]string{"transition"}, // used | unused
)

var vouchersPrintedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vouchers_printed_total",
		Help: "Vouchers flagged as printed.",
	},
)

// AddImported counts a persisted upload batch.
func AddImported(n int) {
	if n > 0 {
		vouchersImportedTotal.Add(float64(n))
	}
}

// IncTransition counts one applied state change.
func IncTransition(transition string) {
	voucherTransitionsTotal.WithLabelValues(norm(transition)).Inc()
}

// AddPrinted counts vouchers newly flagged as printed.
func AddPrinted(n int) {
	if n > 0 {
		vouchersPrintedTotal.Add(float64(n))
	}
}
