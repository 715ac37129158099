// Package main implements the RGB node.
//
//	rgbd start
//	rgbd --config ~/.rgbd/rgbd.toml start --grpc :7777 --metrics :9090
//	rgbd contract list
//	rgbd contract state --id XX
//	rgbd transfer accept --file transfer.json
package main

import (
	"fmt"
	"os"

	"go.dedis.ch/rgbd/cli/daemon"
)

func main() {
	app := daemon.NewBuilder().Build()

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rgbd: %v\n", err)
		os.Exit(1)
	}
}
