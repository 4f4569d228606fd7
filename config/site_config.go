package config

// site-wide worker settings
type siteConfig struct {
	// directory holding worker-local state such as the transfer journal
	// (default: /var/lib/rvdm)
	DataDirectory string `json:"data_dir" yaml:"data_dir"`
	// default scheduler interval in minutes (default: 5)
	SchedulerInterval int `json:"scheduler_interval" yaml:"scheduler_interval"`
	// default size cacher interval in seconds (default: 10)
	SizeCacheInterval int `json:"size_cache_interval" yaml:"size_cache_interval"`
	// default age after which transfer logs are purged, as a phrase like
	// "12 hours" or "3 days 6 hours" (default: "1 week")
	TransferLogPurge string `json:"transfer_log_purge" yaml:"transfer_log_purge"`
	// use rclone instead of rsync for the ship-to-shore mover
	S2SUseRclone bool `json:"s2s_use_rclone" yaml:"s2s_use_rclone"`
}
