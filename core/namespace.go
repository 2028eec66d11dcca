package core

import "fmt"

// Namespace prefix for every persisted key. Mirrors the key layout used for
// Redis isolation: "spendwise:<subsystem>:<principal>".
const namespacePrefix = "spendwise"

// Subsystem tags for the persisted state machines. Each subsystem owns its
// namespace slot exclusively; no two subsystems ever share one.
const (
	SubsystemCart  = "cart"
	SubsystemList  = "list"
	SubsystemStore = "store-selection"
)

// Namespace derives the storage key scoping one subsystem's state to one
// principal. It is a pure function: the same (subsystem, identity) pair
// always yields the same key, and distinct principals can never collide.
func Namespace(subsystem string, id Identity) string {
	return fmt.Sprintf("%s:%s:%s", namespacePrefix, subsystem, id.PrincipalID())
}
