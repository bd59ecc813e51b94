package player

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"
)

// Report describes what Reconcile had to do to produce a valid State.
type Report struct {
	// Malformed is set when the payload could not be decoded at all and the
	// defaults were substituted.
	Malformed   bool     `json:"malformed"`
	Empty       bool     `json:"empty"`
	FromVersion int      `json:"fromVersion"`
	Migrated    []int    `json:"migrated,omitempty"`
	Coerced     []string `json:"coerced,omitempty"`
}

// Migration rewrites a generic save tree from one version to the next.
type Migration func(tree map[string]any)

// Migrations are keyed by the version they upgrade from.
var Migrations = map[int]Migration{
	1: migrateV1,
}

// Sanitize returns a valid State for any payload. It never fails.
func Sanitize(raw []byte, now time.Time) State {
	s, _ := Reconcile(raw, now)
	return s
}

// Reconcile merges raw over the default record, runs migrations, coerces
// malformed fields and stamps the current schema version.
func Reconcile(raw []byte, now time.Time) (State, Report) {
	var rep Report
	defaults := defaultTree(now)

	tree := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		rep.Empty = true
	} else {
		var decoded any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err != nil || dec.More() {
			rep.Malformed = true
			out := Default(now)
			rep.FromVersion = SchemaVersion
			return out, rep
		}
		switch v := decoded.(type) {
		case map[string]any:
			tree = v
		case nil:
			rep.Empty = true
		default:
			rep.Malformed = true
			out := Default(now)
			rep.FromVersion = SchemaVersion
			return out, rep
		}
	}

	rep.FromVersion = sourceVersion(tree, rep.Empty)
	for v := rep.FromVersion; v < SchemaVersion; v++ {
		if m, ok := Migrations[v]; ok {
			m(tree)
			rep.Migrated = append(rep.Migrated, v)
		}
	}

	merged := mergeDefaults(tree, defaults)
	return decodeTree(merged, now, &rep), rep
}

func sourceVersion(tree map[string]any, empty bool) int {
	if empty {
		return SchemaVersion
	}
	f, ok := number(tree["saveVersion"])
	switch {
	case !ok || f < 1:
		return 1
	case f > math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// mergeDefaults copies target and fills every key missing from it with the
// default. Nested objects in defaults recurse; arrays and primitives from
// target pass through untouched.
func mergeDefaults(target any, defaults map[string]any) map[string]any {
	t, ok := target.(map[string]any)
	if !ok {
		return cloneTree(defaults)
	}
	out := make(map[string]any, len(t)+len(defaults))
	for k, v := range t {
		out[k] = v
	}
	for k, dv := range defaults {
		tv, present := out[k]
		if !present {
			out[k] = cloneValue(dv)
			continue
		}
		if dm, isObj := dv.(map[string]any); isObj {
			out[k] = mergeDefaults(tv, dm)
		}
	}
	return out
}

func defaultTree(now time.Time) map[string]any {
	b, err := json.Marshal(Default(now))
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return map[string]any{}
	}
	return out
}

func cloneTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneTree(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	default:
		return v
	}
}

func decodeTree(tree map[string]any, now time.Time, rep *Report) State {
	s := Default(now)

	s.Gold = wholeField(tree, "gold", rep)
	s.MaxGold = wholeField(tree, "maxGold", rep)
	s.GPS = floatField(tree, "gps", rep)
	s.GPC = floatField(tree, "gpc", rep)
	s.Upgrades = setField(tree, "upgrades", rep)
	s.UnlockedItems = setField(tree, "unlockedItems", rep)
	s.LearnedSkills = setField(tree, "learnedSkills", rep)
	s.Counters = countersField(tree, "counters", rep)
	s.RefreshMaxGold()

	if f, ok := number(tree["lastSeenMs"]); ok && f >= 0 && f < math.MaxInt64 {
		s.LastSeenMs = int64(f)
	} else {
		rep.Coerced = append(rep.Coerced, "lastSeenMs")
		s.LastSeenMs = now.UnixMilli()
	}

	s.SaveVersion = SchemaVersion
	return s
}

func wholeField(tree map[string]any, key string, rep *Report) int64 {
	f, ok := number(tree[key])
	if !ok || f < 0 || f >= math.MaxInt64 {
		rep.Coerced = append(rep.Coerced, key)
		return 0
	}
	if f != math.Floor(f) {
		rep.Coerced = append(rep.Coerced, key)
	}
	return int64(math.Floor(f))
}

func floatField(tree map[string]any, key string, rep *Report) float64 {
	f, ok := number(tree[key])
	if !ok || f < 0 {
		rep.Coerced = append(rep.Coerced, key)
		return 0
	}
	return f
}

func setField(tree map[string]any, key string, rep *Report) IDSet {
	arr, ok := tree[key].([]any)
	if !ok {
		rep.Coerced = append(rep.Coerced, key)
		return NewIDSet()
	}
	s := NewIDSet()
	for _, v := range arr {
		id, isStr := v.(string)
		if !isStr || id == "" {
			continue
		}
		s.Add(id)
	}
	return s
}

func countersField(tree map[string]any, key string, rep *Report) Counters {
	obj, ok := tree[key].(map[string]any)
	if !ok {
		rep.Coerced = append(rep.Coerced, key)
		return Counters{}
	}
	out := Counters{}
	names := make([]string, 0, len(obj))
	for k := range obj {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		f, isNum := number(obj[k])
		if !isNum {
			rep.Coerced = append(rep.Coerced, key+"."+k)
			continue
		}
		if f < 0 {
			rep.Coerced = append(rep.Coerced, key+"."+k)
			f = 0
		}
		if f >= math.MaxInt64 {
			out[k] = math.MaxInt64
			continue
		}
		out[k] = int64(math.Floor(f))
	}
	return out
}

// number accepts JSON numbers only; strings, bools and nulls are rejected.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// migrateV1 folds the browser-era top-level fields into counters.
func migrateV1(tree map[string]any) {
	counters, ok := tree["counters"].(map[string]any)
	if !ok {
		counters = map[string]any{}
	}
	move := func(name string, v any) {
		if _, exists := counters[name]; exists {
			return
		}
		if _, isNum := number(v); isNum {
			counters[name] = v
		}
	}

	legacy := map[string]string{
		"rep":                CounterRep,
		"staffCount":         CounterStaff,
		"shopExpansionLevel": CounterShopExpansion,
		"coreLevel":          CounterCoreLevel,
	}
	for old, name := range legacy {
		if v, present := tree[old]; present {
			move(name, v)
			delete(tree, old)
		}
	}

	if inv, isObj := tree["inventory"].(map[string]any); isObj {
		for _, name := range []string{CounterMeat, CounterVeg, CounterGrain} {
			move(name, inv[name])
		}
	}
	delete(tree, "inventory")

	if counts, isObj := tree["itemCounts"].(map[string]any); isObj {
		for k, v := range counts {
			move(k, v)
		}
	}
	delete(tree, "itemCounts")

	tree["counters"] = counters
}
