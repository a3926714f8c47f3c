// Package config holds the settings of a crawl run: where to start, how hard
// to retry, where to write, and which heuristics to apply. Values come from
// defaults, an optional YAML file and command line flags, in that order.
package config
