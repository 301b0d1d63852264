package core

import (
	"os"
	"path/filepath"
)

type Paths struct {
	HomeDir      string
	DataDir      string
	LogFile      string
	DatabaseFile string
	ConfigFile   string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".texpand")
		if override := os.Getenv("TEXPAND_HOME"); override != "" {
			dataDir = override
		}

		defaultPaths = &Paths{
			HomeDir:      homeDir,
			DataDir:      dataDir,
			LogFile:      filepath.Join(dataDir, "texpand.log"),
			DatabaseFile: filepath.Join(dataDir, "shortcuts.db"),
			ConfigFile:   filepath.Join(dataDir, "config.yaml"),
		}

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func DatabaseFile() string {
	ensureDefaultPaths()
	return defaultPaths.DatabaseFile
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

// ResetPaths clears the cached paths, forcing them to be reinitialized.
// This is primarily used for testing purposes.
func ResetPaths() {
	defaultPaths = nil
}
