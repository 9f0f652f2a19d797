package commands

import (
	"elabftw-tools/lib/configutil"
	"elabftw-tools/lib/elabapi"
	"elabftw-tools/lib/journal"
	"elabftw-tools/lib/restyutil"
	"errors"
	"fmt"
	"os"
	"time"
)

const apiKeyEnv = "ELABFTW_API_KEY"

type Config struct {
	// instance api root, ex. https://elab.example.org/api/v2
	ApiUrl string `json:"api_url"`
	ApiKey string `json:"api_key"`
	// resource category new items are created in
	CategoryID         int64 `json:"category_id"`
	InsecureSkipVerify bool  `json:"insecure_skip_verify"`
	TimeoutSeconds     int   `json:"timeout_seconds"`
	// used when --journal is not given
	Journal journal.Config `json:"journal"`
}

// loadConfig reads the config at `path`, searching parent directories when
// `search` is set. a missing file is fine as long as the environment
// provides what is needed.
func loadConfig(path string, search bool) (Config, error) {
	var cfg Config
	var err error
	if search {
		cfg, err = configutil.ReadRecursively[Config](path)
	} else {
		cfg, err = configutil.ReadConfig[Config](path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if errors.Is(err, os.ErrNotExist) && !search {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.ApiKey = key
	}
	if cfg.CategoryID == 0 {
		cfg.CategoryID = 1
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ApiUrl == "" {
		return fmt.Errorf("api_url is not configured")
	}
	if c.ApiKey == "" {
		return fmt.Errorf("api_key is not configured, set it in the config or %s", apiKeyEnv)
	}
	return nil
}

func (c Config) NewClient(dumpDir string) (*elabapi.Client, error) {
	err := c.Validate()
	if err != nil {
		return nil, err
	}

	opts := elabapi.ClientOptions{
		BaseUrl:            c.ApiUrl,
		ApiKey:             c.ApiKey,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
	}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = output
	}
	return elabapi.NewClient(opts)
}
