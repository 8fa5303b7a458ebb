// Package main is the single-binary entrypoint for clickquest.
package main

import "github.com/clickquest/clickquest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
