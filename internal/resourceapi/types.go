// internal/resourceapi/types.go
package resourceapi

// resourceTypes is the explicit registry of record collections served by
// the api. Everything is org-partitioned and handled by the one canonical
// handler set; adding a type means adding a line here.
var resourceTypes = map[string]struct{}{
	"volunteers":   {},
	"incidents":    {},
	"periods":      {},
	"units":        {},
	"radios":       {},
	"locations":    {},
	"activitylogs": {},
}

func knownType(t string) bool {
	_, ok := resourceTypes[t]
	return ok
}
