package config

// configuration for the control-plane API client
type apiConfig struct {
	// base URL for the control-plane API (e.g. "http://127.0.0.1")
	Url string `json:"url" yaml:"url"`
	// request timeout in seconds (default: 5)
	Timeout int `json:"timeout" yaml:"timeout"`
}
