package main

import (
	"os"

	lenscmder "github.com/papercomputeco/lens/cmd/lens"
)

func main() {
	cmd := lenscmder.NewLensCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
