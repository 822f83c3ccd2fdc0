package ledger

// Namespace is the prefix for every key the engine persists.
const Namespace = "networth:"

// Well-known keys inside the namespace.
const (
	KeyAccounts   = Namespace + "accounts"
	KeyOperations = Namespace + "operations"
	KeySnapshots  = Namespace + "snapshots"
	KeyMonthStart = Namespace + "settings:month-start"
)

// Device-local prefixes. Keys under these never leave the device: they are
// excluded from backup documents and from the sync engine's change watch.
const (
	DevicePrefix = Namespace + "device:"
	RemotePrefix = Namespace + "remote:"
)

// KeyDeviceID holds this device's sync identity.
const KeyDeviceID = DevicePrefix + "id"

// ExcludedPrefixes lists every prefix the backup codec and sync watcher
// must skip.
var ExcludedPrefixes = []string{DevicePrefix, RemotePrefix}
