// Package main is the single-binary entrypoint for sidekick, the
// screensaver settings, autolock and launcher toolkit.
package main

import "github.com/sidekick-screensaver/sidekick/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
