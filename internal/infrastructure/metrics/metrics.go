package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Values of the "result" label.
const (
	AppRequests        = "app_requests_total"
	FilesUploaded      = "files_uploaded_total"
	FilesRenamed       = "files_renamed_total"
	FilesDeleted       = "files_deleted_total"
	FilesResolved      = "files_resolved_total"
	CodeCollisions     = "code_collisions_total"
	ResolveFailed      = "resolve_failed_total"
	OrphansRemoved     = "orphans_removed_total"
	SignIns            = "sign_ins_total"
	SignInsFailed      = "sign_ins_failed_total"
	LedgerEntriesAdded = "ledger_entries_added_total"
)

func NewCounter() *prometheus.CounterVec {
	return NewCounterWith(prometheus.DefaultRegisterer)
}

func NewCounterWith(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uploadit",
			Name:      "general_counters",
		},
		[]string{"result"})
}
