package query

import (
	"strconv"
	"strings"
)

// Key addresses one cached query. Keys are hierarchical: a key is a prefix
// of every key nested under it.
type Key []string

// Equal reports whether k and other have the same elements in order.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading sub-tuple of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return k[:len(prefix)].Equal(prefix)
}

// String renders the key for logs, e.g. [machines detail geode-0].
func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// id is a collision-free map key: each element is length-prefixed so
// ("a b") and ("a", "b") never collide.
func (k Key) id() string {
	var b strings.Builder
	for _, part := range k {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

const machinesScope = "machines"

// MachinesRoot is the prefix shared by every machine query.
func MachinesRoot() Key { return Key{machinesScope} }

// MachinesList addresses the fleet list.
func MachinesList() Key { return Key{machinesScope, "list"} }

// MachineDetail addresses one machine's summary.
func MachineDetail(id string) Key { return Key{machinesScope, "detail", id} }

// MachineProviders addresses one machine's provider list.
func MachineProviders(id string) Key { return append(MachineDetail(id), "providers") }

// MachineWithProviders addresses a machine together with its providers.
func MachineWithProviders(id string) Key { return append(MachineDetail(id), "full") }

// ProviderDetail addresses a single provider on a machine.
func ProviderDetail(machineID, providerID string) Key {
	return append(MachineProviders(machineID), providerID)
}
