package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	mergesCompleted     atomic.Int64
	mergesRejected      atomic.Int64
	mergesFailed        atomic.Int64
	mergeRecordsTouched atomic.Int64
	remergeSweeps       atomic.Int64
	remergeSweepsFailed atomic.Int64
	remergeRecords      atomic.Int64
	lastSweepUnix       atomic.Int64
)

func Init() {}

func ObserveMerge(recordsTouched int) {
	mergesCompleted.Add(1)
	mergeRecordsTouched.Add(int64(recordsTouched))
}

func ObserveMergeRejected() {
	mergesRejected.Add(1)
}

func ObserveMergeFailed() {
	mergesFailed.Add(1)
}

func ObserveRemergeSweep(recordsTouched int, failed bool, completedUnix int64) {
	remergeSweeps.Add(1)
	if failed {
		remergeSweepsFailed.Add(1)
		return
	}
	remergeRecords.Add(int64(recordsTouched))
	lastSweepUnix.Store(completedUnix)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP tidewell_merge_completed_total Number of patient merges committed.\n")
	fmt.Fprintf(w, "# TYPE tidewell_merge_completed_total counter\n")
	fmt.Fprintf(w, "tidewell_merge_completed_total %d\n", mergesCompleted.Load())

	fmt.Fprintf(w, "# HELP tidewell_merge_rejected_total Number of merge requests rejected as invalid.\n")
	fmt.Fprintf(w, "# TYPE tidewell_merge_rejected_total counter\n")
	fmt.Fprintf(w, "tidewell_merge_rejected_total %d\n", mergesRejected.Load())

	fmt.Fprintf(w, "# HELP tidewell_merge_failed_total Number of merge transactions rolled back.\n")
	fmt.Fprintf(w, "# TYPE tidewell_merge_failed_total counter\n")
	fmt.Fprintf(w, "tidewell_merge_failed_total %d\n", mergesFailed.Load())

	fmt.Fprintf(w, "# HELP tidewell_merge_records_touched_total Number of dependent records repointed or reconciled by merges.\n")
	fmt.Fprintf(w, "# TYPE tidewell_merge_records_touched_total counter\n")
	fmt.Fprintf(w, "tidewell_merge_records_touched_total %d\n", mergeRecordsTouched.Load())

	fmt.Fprintf(w, "# HELP tidewell_remerge_sweeps_total Number of maintenance sweeps started.\n")
	fmt.Fprintf(w, "# TYPE tidewell_remerge_sweeps_total counter\n")
	fmt.Fprintf(w, "tidewell_remerge_sweeps_total %d\n", remergeSweeps.Load())

	fmt.Fprintf(w, "# HELP tidewell_remerge_sweeps_failed_total Number of maintenance sweeps rolled back.\n")
	fmt.Fprintf(w, "# TYPE tidewell_remerge_sweeps_failed_total counter\n")
	fmt.Fprintf(w, "tidewell_remerge_sweeps_failed_total %d\n", remergeSweepsFailed.Load())

	fmt.Fprintf(w, "# HELP tidewell_remerge_records_total Number of straggler records repaired by maintenance sweeps.\n")
	fmt.Fprintf(w, "# TYPE tidewell_remerge_records_total counter\n")
	fmt.Fprintf(w, "tidewell_remerge_records_total %d\n", remergeRecords.Load())

	fmt.Fprintf(w, "# HELP tidewell_remerge_last_sweep_timestamp_seconds Unix time of the last successful sweep.\n")
	fmt.Fprintf(w, "# TYPE tidewell_remerge_last_sweep_timestamp_seconds gauge\n")
	fmt.Fprintf(w, "tidewell_remerge_last_sweep_timestamp_seconds %d\n", lastSweepUnix.Load())
}
