// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/json"
	"fmt"
)

const (
	defaultMempoolSize = 1024
	defaultMaxBlockTxs = 256
)

// Config is the VM configuration passed as configBytes
type Config struct {
	MempoolSize    int `json:"mempoolSize"`
	MaxBlockTxs    int `json:"maxBlockTxs"`
	KittyCacheSize int `json:"kittyCacheSize"`
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() Config {
	return Config{
		MempoolSize:    defaultMempoolSize,
		MaxBlockTxs:    defaultMaxBlockTxs,
		KittyCacheSize: defaultKittyCacheSize,
	}
}

// ParseConfig overlays [configBytes] on the defaults
func ParseConfig(configBytes []byte) (Config, error) {
	config := DefaultConfig()
	if len(configBytes) == 0 {
		return config, nil
	}
	if err := json.Unmarshal(configBytes, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.MempoolSize <= 0 || config.MaxBlockTxs <= 0 {
		return Config{}, fmt.Errorf("mempoolSize (%d) and maxBlockTxs (%d) must be positive", config.MempoolSize, config.MaxBlockTxs)
	}
	return config, nil
}
