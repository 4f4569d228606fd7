package config

// configuration for the Gearman job broker
type brokerConfig struct {
	// addresses ("host:port") of the job broker servers
	Servers []string `json:"servers" yaml:"servers"`
}
