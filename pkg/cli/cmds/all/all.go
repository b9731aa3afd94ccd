// Package all pulls every command provider into the CLI.
package all

import (
	_ "github.com/keebworks/sidelink.go/pkg/cli/cmds/keys"
	_ "github.com/keebworks/sidelink.go/pkg/cli/cmds/link"
	_ "github.com/keebworks/sidelink.go/pkg/cli/cmds/rgb"
)
