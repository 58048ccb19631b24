package configs

import (
	"flag"
	"os"

	"github.com/stagelink/backend/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag, the
// STAGELINK_CONFIG env var, or a set of conventional locations. An empty
// result means "defaults only".
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("STAGELINK_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/stagelink/config.yaml",
			"/app/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
