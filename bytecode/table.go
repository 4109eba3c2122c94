package bytecode

// Table is an open-addressing hash table with linear probing and
// tombstone deletion, keyed by interned *ObjString identity. It backs
// globals, instance fields, class method tables and the Heap's own
// string-intern set. It is deliberately not Go's built-in map: lumen
// names this table as its own component with its own probing and
// growth behavior, and instance/class field lookups need the tombstone
// semantics a plain map doesn't give you.
type Table struct {
	count   int // live entries plus tombstones
	entries []entry
}

type entry struct {
	key   *ObjString // nil means empty or tombstone
	value Value
	live  bool // distinguishes a tombstone (key nil, live true) from truly empty (key nil, live false)
}

const tableMaxLoad = 0.75

// Get looks up key, returning its value and whether it was found.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores value under key, growing the table if needed. It reports
// whether this created a new entry (as opposed to overwriting one).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && !e.live {
		t.count++
	}
	e.key = key
	e.value = value
	e.live = true
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes for
// other keys that hashed into the same run keep working.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolVal(true) // tombstone sentinel
	return true
}

// Has reports whether key is present.
func (t *Table) Has(key *ObjString) bool {
	_, ok := t.Get(key)
	return ok
}

// Len returns the number of live (non-tombstone, non-empty) entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// Each calls fn for every live entry, in table (not insertion) order.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			fn(t.entries[i].key, t.entries[i].value)
		}
	}
}

// AddAll bulk-copies every live entry of src into t, overwriting on
// collision. This realizes INHERIT's superclass-method bulk copy.
func (t *Table) AddAll(src *Table) {
	src.Each(func(k *ObjString, v Value) {
		t.Set(k, v)
	})
}

// FindStringKey looks up an interned string by content and hash without
// needing an *ObjString yet -- the one place the table is probed by raw
// content, used to find or fail to find an existing interned string
// before allocating a new one.
func (t *Table) FindStringKey(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	i := hash & mask
	for {
		e := &t.entries[i]
		switch {
		case e.key == nil && !e.live:
			return nil
		case e.key != nil && e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		i = (i + 1) & mask
	}
}

func (t *Table) find(key *ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	i := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[i]
		switch {
		case e.key == nil && !e.live:
			if tombstone != nil {
				return tombstone
			}
			return e
		case e.key == nil && e.live:
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		i = (i + 1) & mask
	}
}

func (t *Table) grow(capacity int) {
	old := t.entries
	t.entries = make([]entry, capacity)
	t.count = 0
	for i := range old {
		if old[i].key == nil {
			continue
		}
		dst := t.find(old[i].key)
		dst.key = old[i].key
		dst.value = old[i].value
		dst.live = true
		t.count++
	}
}

func growCapacity(cur int) int {
	if cur < 8 {
		return 8
	}
	return cur * 2
}

// hashString computes the FNV-1a hash lumen uses for string interning,
// matching the algorithm most of this codebase's clox-derived siblings
// use for their own string tables.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
