package shared

// ResourceKey identifies an item or fluid kind in the catalog ("water", "coal").
// The empty key means "unset".
type ResourceKey string

// EmptyKey is the unset resource key
const EmptyKey ResourceKey = ""

// IsEmpty reports whether the key is unset
func (k ResourceKey) IsEmpty() bool {
	return k == EmptyKey
}

func (k ResourceKey) String() string {
	return string(k)
}

// Tick counts simulation cycles since the world started
type Tick uint64
