package main

import "fmt"

const (
	versionCmdName      = "version"
	versionCmdShortDesc = "print version"
	versionCmdLongDesc  = versionCmdShortDesc
)

type versionCmd struct{}

func (c *versionCmd) Execute(args []string) error {
	fmt.Printf("%s - %s (build %s)\n", appName, version, build)
	return nil
}

func init() {
	_, err := app.AddCommand(versionCmdName, versionCmdShortDesc, versionCmdLongDesc, &versionCmd{})
	if err != nil {
		panic(err)
	}
}
