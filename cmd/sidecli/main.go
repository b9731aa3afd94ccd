package main

import (
	"github.com/keebworks/sidelink.go/pkg/cli/sh"
	"github.com/keebworks/sidelink.go/pkg/side"

	_ "github.com/keebworks/sidelink.go/pkg/cli/cmds/all"
)

func init() {
	side.SetupFlags()
}

func main() {
	sh.Main()
}
