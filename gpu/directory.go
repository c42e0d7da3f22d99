// Package gpu tracks the AMD adapters of one ADL session and reads their fan
// telemetry.
package gpu

import (
	"fmt"

	"fanwatch/adl"
)

// ATIVendorID is the PCI vendor id ADL reports for ATI/AMD adapters.
const ATIVendorID = 1002

// AdapterLister is the part of adl.Session discovery needs.
type AdapterLister interface {
	ListAdapters() ([]adl.AdapterInfo, adl.Status, error)
	IsAdapterActive(index int) (bool, adl.Status, error)
}

// DiscoverActiveAdapters returns the adapters that are both active and made
// by ATI/AMD, in the order ADL lists them.
//
// Any failure aborts discovery; a partial list is never returned.
func DiscoverActiveAdapters(l AdapterLister) ([]adl.AdapterInfo, error) {
	all, _, err := l.ListAdapters()
	if err != nil {
		return nil, fmt.Errorf("list adapters: %w", err)
	}

	active := make([]adl.AdapterInfo, 0, len(all))
	for _, a := range all {
		ok, _, err := l.IsAdapterActive(a.Index)
		if err != nil {
			return nil, fmt.Errorf("query activity of adapter %d: %w", a.Index, err)
		}
		if ok && a.VendorID == ATIVendorID {
			active = append(active, a)
		}
	}
	return active, nil
}

// AdapterNames returns the names of adapters in order.
func AdapterNames(adapters []adl.AdapterInfo) []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name
	}
	return names
}
