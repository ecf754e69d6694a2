package apicache

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// Key builds a deterministic cache key from a request's semantic
// parameters. Two logically identical requests always produce the same
// key regardless of field or map iteration order.
func Key(prefix string, params any) string {
	h, err := hashstructure.Hash(params, hashstructure.FormatV2, nil)
	if err != nil {
		// Only unhashable types (channels, funcs) end up here; fall back
		// to the formatted value so callers still get a stable-ish key.
		return fmt.Sprintf("%s:%v", prefix, params)
	}
	return fmt.Sprintf("%s:%016x", prefix, h)
}
