// main is the entry point of the gitpulse CLI.
package main

import (
	"os"

	"github.com/huangsam/gitpulse/cmd"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.Logger.Error(err)
		os.Exit(1)
	}
}
