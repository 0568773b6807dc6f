package main

import (
	"gopkg.in/src-d/go-cli.v0"
)

const (
	appName        string = "upload-pack-server"
	appDescription string = "Serves git-upload-pack negotiation over a plain TCP listener."
)

var (
	version string
	build   string
)

var app = cli.New(appName, version, build, appDescription)

func main() {
	app.RunMain()
}
