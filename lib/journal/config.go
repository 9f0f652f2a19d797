package journal

import (
	"fmt"
)

// Config is the "journal" section of a config file.
type Config struct {
	File string `json:"file"`
}

func (config Config) Open() (Journal, error) {
	if config.File == "" {
		return Journal{}, fmt.Errorf("a path was not specified")
	}
	return Open(config.File)
}
