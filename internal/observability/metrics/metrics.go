// Package metrics exposes prometheus counters for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Provide(New)

type Metrics struct {
	vouchersIssued   *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	overdueSwept     prometheus.Counter
	schedulerRuns    *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		vouchersIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeledger_vouchers_issued_total",
			Help: "Voucher generation outcomes by result.",
		}, []string{"outcome"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeledger_payments_recorded_total",
			Help: "Payments applied to vouchers by method.",
		}, []string{"method"}),
		overdueSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feeledger_vouchers_overdue_swept_total",
			Help: "Vouchers transitioned to OVERDUE by the sweep.",
		}),
		schedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeledger_scheduler_job_runs_total",
			Help: "Scheduler job executions by job and result.",
		}, []string{"job", "result"}),
	}

	for _, c := range []prometheus.Collector{
		m.vouchersIssued,
		m.paymentsRecorded,
		m.overdueSwept,
		m.schedulerRuns,
	} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) IncVoucherIssued(outcome string) {
	m.vouchersIssued.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPaymentRecorded(method string) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) AddOverdueSwept(n float64) {
	m.overdueSwept.Add(n)
}

func (m *Metrics) IncSchedulerRun(job, result string) {
	m.schedulerRuns.WithLabelValues(job, result).Inc()
}
