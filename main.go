package main

import (
	"photo-gallery/internal/cli"
	"photo-gallery/internal/startup"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		startup.LogFatal("%v", err)
	}
}
