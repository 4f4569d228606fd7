package config

// configuration for data-dashboard parser plugins
type dashboardConfig struct {
	// directory holding per-collection-system parser plugins
	PluginDir string `json:"plugin_dir" yaml:"plugin_dir"`
	// filename suffix identifying a parser plugin (default: "_parser")
	PluginSuffix string `json:"plugin_suffix" yaml:"plugin_suffix"`
	// interpreter used to run plugins (empty: plugins are executed directly)
	Interpreter string `json:"interpreter" yaml:"interpreter"`
}
