package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// global config variables
var Broker brokerConfig
var Api apiConfig
var Dashboard dashboardConfig
var Site siteConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Broker    brokerConfig    `yaml:"broker"`
	Api       apiConfig       `yaml:"api"`
	Dashboard dashboardConfig `yaml:"dashboard"`
	Site      siteConfig      `yaml:"site"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Broker.Servers = []string{"localhost:4730"}
	conf.Api.Url = "http://localhost:80"
	conf.Api.Timeout = 5
	conf.Dashboard.PluginSuffix = "_parser"
	conf.Site.DataDirectory = "/var/lib/rvdm"
	conf.Site.SchedulerInterval = 5
	conf.Site.SizeCacheInterval = 10
	conf.Site.TransferLogPurge = "1 week"
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		log.Printf("Couldn't parse configuration data: %s\n", err)
		return err
	}

	// copy the config data into place
	Broker = conf.Broker
	Api = conf.Api
	Dashboard = conf.Dashboard
	Site = conf.Site

	return err
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	if len(Broker.Servers) == 0 {
		return fmt.Errorf("No job broker servers were provided!")
	}
	if Api.Url == "" {
		return fmt.Errorf("No control-plane API URL was provided!")
	}
	if Api.Timeout <= 0 {
		return fmt.Errorf("Invalid API timeout: %d (must be positive)", Api.Timeout)
	}
	if Site.DataDirectory == "" {
		return fmt.Errorf("No data directory was provided!")
	}
	if Site.SchedulerInterval <= 0 {
		return fmt.Errorf("Invalid scheduler interval: %d (must be positive)",
			Site.SchedulerInterval)
	}
	if Site.SizeCacheInterval <= 0 {
		return fmt.Errorf("Invalid size cache interval: %d (must be positive)",
			Site.SizeCacheInterval)
	}
	return nil
}

// Initializes the data manager configuration using the given YAML byte data.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML data.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}
