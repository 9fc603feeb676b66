package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-mpris-watch/logger"
)

const (
	AppName     = "mpris-watch"
	AppVersion  = "0.1.0"
	serviceType = "_http._tcp"
	domain      = "local."
)

type Config struct {
	Api      *ApiConfig
	MPRIS    *MPRISConfig
	Zeroconf *ZeroConfig
	LogLevel logger.Level
}

type ApiConfig struct {
	Enabled bool
	Port    int
}

type MPRISConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Allow        []string
	Deny         []string
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
	Listen       []net.Interface
}

func interfaceForIP(ip string) (*net.Interface, error) {
	if ip == "127.0.0.1" {
		return nil, nil
	}
	listenIP := net.ParseIP(ip)
	if listenIP == nil {
		return nil, fmt.Errorf("invalid bind: %s", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			var ifaceIP net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}

			if ifaceIP != nil && ifaceIP.Equal(listenIP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found for IP %s", ip)
}

func New() (*Config, error) {
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("mpris.timeout", "5s")
	viper.SetDefault("mpris.pollinterval", "1s")
	viper.SetDefault("mpris.allow", []string{})
	viper.SetDefault("mpris.deny", []string{})

	viper.SetDefault("zeroconf.enabled", true)

	viper.SetDefault("LogLevel", "INFO")
	viper.SetDefault("bind", "127.0.0.1")
	// Load from configuration file, environment variables, and CLI flags
	viper.SetConfigName("config")                       // name of config file (without extension)
	viper.SetConfigType("yaml")                         // config file format
	viper.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("failed to read config: %v", err)
		}
	}

	port := viper.GetInt("api.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	bind := viper.GetString("bind")
	var interfaces []net.Interface
	inet, err := interfaceForIP(bind)
	if err == nil && inet != nil {
		interfaces = append(interfaces, *inet)
	}

	apiCfg := ApiConfig{
		Enabled: viper.GetBool("api.enabled"),
		Port:    port,
	}

	mprisTimeout := viper.GetDuration("mpris.timeout")
	if mprisTimeout <= 0 {
		mprisTimeout = 5 * time.Second
	}

	pollInterval := viper.GetDuration("mpris.pollinterval")
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	mpriscfg := MPRISConfig{
		Timeout:      mprisTimeout,
		PollInterval: pollInterval,
		Allow:        viper.GetStringSlice("mpris.allow"),
		Deny:         viper.GetStringSlice("mpris.deny"),
	}

	zerocfg := ZeroConfig{
		Enabled:      viper.GetBool("zeroconf.enabled"),
		InstanceName: AppName,
		ServiceType:  serviceType,
		Port:         port,
		Domain:       domain,
		TxtRecords:   []string{"version=" + AppVersion},
		Listen:       interfaces,
	}

	cfg := Config{
		Api:      &apiCfg,
		MPRIS:    &mpriscfg,
		Zeroconf: &zerocfg,
		LogLevel: logger.ParseLevel(viper.GetString("LogLevel")),
	}

	return &cfg, nil
}

// WatchLogLevel reapplies LogLevel when the config file changes on disk.
// Only the log level is hot-reloaded; everything else needs a restart.
func WatchLogLevel() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if err := viper.ReadInConfig(); err != nil {
			logger.Warn("config reload failed: %v", err)
			return
		}
		level := logger.ParseLevel(viper.GetString("LogLevel"))
		logger.SetLevel(level)
		logger.Info("config reloaded from %s, log level now %s", e.Name, viper.GetString("LogLevel"))
	})
	viper.WatchConfig()
}
