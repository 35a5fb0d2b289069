package metadata

/** @brief Per-bin counters reported by a job system. */
type JobStats struct {
	/** @brief Jobs enqueued and not yet finished. */
	Outstanding uint32
	/** @brief Jobs completed since the system started. */
	Completed uint64
	/** @brief Jobs whose entry point returned an error. */
	Failed uint64
}
