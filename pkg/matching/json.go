package matching

import "encoding/json"

// structToMap round-trips v through JSON into a map[string]any, the
// shape models.VersionedJSON.Data expects. Marshal/unmarshal of our
// own well-formed structs cannot fail in practice; a failure here
// would mean a coding mistake, not a runtime condition to recover
// from, so it panics rather than threading an error return everywhere
// this is called.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(err)
	}
	return m
}
