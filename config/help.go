package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `HobLink backend

Usage:
  hoblink -mode <service> [-config-path config.yaml]

Services:
  session-service   sign-up / sign-in / identity
  ride-service      ride booking and lifecycle
  driver-service    driver availability and live location
  admin-service     aggregate views and driver verification

Configuration comes from the YAML file, overridable by environment variables.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
