// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey  = "version"
	vmIDKey     = "vmID"
	logLevelKey = "log-level"

	envPrefix = "kittyvm"
)

// params are the plugin settings
type params struct {
	version  bool
	vmID     bool
	logLevel string
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("kittyvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.Bool(vmIDKey, false, "If true, prints vmID and quit")
	fs.String(logLevelKey, "info", "Log level (crit, error, warn, info, debug)")

	return fs
}

// getViper returns the viper environment for the plugin binary.
// Every flag may also be set as KITTYVM_<FLAG>.
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	return v, nil
}

func getParams() (*params, error) {
	v, err := getViper()
	if err != nil {
		return nil, err
	}

	return &params{
		version:  v.GetBool(versionKey),
		vmID:     v.GetBool(vmIDKey),
		logLevel: v.GetString(logLevelKey),
	}, nil
}
