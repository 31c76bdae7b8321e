// Package main is the entry point for chatstats.
package main

import "github.com/j-veylop/chatstats-tui/internal/cli"

func main() {
	cli.Execute()
}
