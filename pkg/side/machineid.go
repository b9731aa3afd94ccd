package side

import (
	"github.com/denisbrodbeck/machineid"
)

// MachineID returns an ID unique to this machine, hashed with the
// application name so the raw machine ID never reaches a shared
// broker.
func MachineID() string {
	id, err := machineid.ProtectedID("sidelink")
	if err != nil {
		panic(err)
	}
	return id
}
