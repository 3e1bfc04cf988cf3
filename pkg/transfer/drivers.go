package transfer

import (
	"strings"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/naming"
)

// transferDrivers replaces the drivers of one entry on target with the
// source's drivers of that entry.
func transferDrivers(source, target *asset.Item, collection, entry string) {
	cleanupDrivers(target, collection, entry)
	prefix := naming.DriverPath(collection, entry)
	for _, d := range source.Drivers {
		if strings.HasPrefix(d.Path, prefix) {
			target.Drivers = append(target.Drivers, d)
		}
	}
}

// cleanupDrivers removes every driver of one entry.
func cleanupDrivers(item *asset.Item, collection, entry string) int {
	prefix := naming.DriverPath(collection, entry)
	kept := item.Drivers[:0]
	removed := 0
	for _, d := range item.Drivers {
		if strings.HasPrefix(d.Path, prefix) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	item.Drivers = kept
	return removed
}

// renameDrivers points drivers of entry from at entry to.
func renameDrivers(item *asset.Item, collection, from, to string) {
	old, repl := naming.DriverPath(collection, from), naming.DriverPath(collection, to)
	for i := range item.Drivers {
		if strings.HasPrefix(item.Drivers[i].Path, old) {
			item.Drivers[i].Path = repl + strings.TrimPrefix(item.Drivers[i].Path, old)
		}
	}
}
