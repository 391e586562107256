package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/osaleh1i1/threatexchange/pkg/build"
)

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Version information.",
	Action: func(cCtx *cli.Context) error {
		fmt.Println(build.Version)
		return nil
	},
}
