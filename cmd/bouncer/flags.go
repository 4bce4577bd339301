package main

// Flag names for Viper binding.
const (
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagDataDir    = "data-dir"
	FlagSocketPath = "socket-path"

	FlagPort   = "port"
	FlagDaemon = "daemon"

	FlagForce = "force"
	FlagJSON  = "json"

	FlagFollow = "follow"
	FlagCount  = "count"
)
