package snapshot

// Migration rewrites a raw snapshot object written by an older build.
// Every migration must be a no-op on data it has already rewritten.
type Migration struct {
	Name  string
	Apply func(raw map[string]any) map[string]any
}

var migrations = []Migration{
	{Name: "unwrap-customer", Apply: unwrapField("customer")},
	{Name: "unwrap-vehicle", Apply: unwrapField("vehicle")},
	{Name: "rename-test-drive-form", Apply: renameTestDriveForm},
	{Name: "legacy-return-state", Apply: legacyReturnState},
	{Name: "legacy-pending-status", Apply: legacyPendingStatus},
}

// Migrations returns the chain in application order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// Migrate runs the whole chain. The input map is not modified.
func Migrate(raw map[string]any) map[string]any {
	out := copyMap(raw)
	for _, m := range migrations {
		out = m.Apply(out)
	}
	return out
}

// unwrapField lifts {"customer": {"customer": {...}}} to {"customer": {...}}.
func unwrapField(field string) func(map[string]any) map[string]any {
	return func(raw map[string]any) map[string]any {
		outer, ok := raw[field].(map[string]any)
		if !ok {
			return raw
		}
		inner, wrapped := outer[field]
		if !wrapped {
			return raw
		}
		out := copyMap(raw)
		out[field] = inner
		return out
	}
}

func renameTestDriveForm(raw map[string]any) map[string]any {
	legacy, ok := raw["testDriveForm"]
	if !ok {
		return raw
	}
	out := copyMap(raw)
	delete(out, "testDriveForm")
	if current, has := out["remoteForm"]; !has || current == nil {
		out["remoteForm"] = legacy
	}
	return out
}

// legacyReturnState moves odometer/fuel readings into the photographic
// shape. The proof slots start empty so the return step must be redone.
func legacyReturnState(raw map[string]any) map[string]any {
	rs, ok := raw["returnState"].(map[string]any)
	if !ok {
		return raw
	}
	_, hasMileage := rs["mileageImageUrl"]
	_, hasFuel := rs["fuelLevelImageUrl"]
	if hasMileage || hasFuel {
		return raw
	}
	next := copyMap(rs)
	next["mileageImageUrl"] = ""
	next["fuelLevelImageUrl"] = ""
	if urls, ok := next["imageUrls"].([]any); !ok || urls == nil {
		next["imageUrls"] = []any{}
	}
	out := copyMap(raw)
	out["returnState"] = next
	return out
}

func legacyPendingStatus(raw map[string]any) map[string]any {
	form, ok := raw["remoteForm"].(map[string]any)
	if !ok || form["status"] != "pending" {
		return raw
	}
	next := copyMap(form)
	next["status"] = "draft"
	out := copyMap(raw)
	out["remoteForm"] = next
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
