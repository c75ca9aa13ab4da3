package reconcile

// Condition represents the physical condition of returned goods.
// It determines what the inventory collaborator does with the stock
// (restock vs. scrap); the ledger itself does not branch on it.
type Condition string

const (
	ConditionGood Condition = "GOOD"
	ConditionBad  Condition = "BAD"
)

// IsValid checks if the condition is a valid Condition
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionBad:
		return true
	}
	return false
}

// String returns the string representation of Condition
func (c Condition) String() string {
	return string(c)
}

// LineKind represents the origin of an order line
type LineKind string

const (
	LineKindRoot          LineKind = "ROOT"          // Delivered with the original order
	LineKindReplacement   LineKind = "REPLACEMENT"   // Spawned by a replace operation
	LineKindComplimentary LineKind = "COMPLIMENTARY" // Added free of charge
)

// IsValid checks if the kind is a valid LineKind
func (k LineKind) IsValid() bool {
	switch k {
	case LineKindRoot, LineKindReplacement, LineKindComplimentary:
		return true
	}
	return false
}

// String returns the string representation of LineKind
func (k LineKind) String() string {
	return string(k)
}

// EntryType represents the type of an audit entry
type EntryType string

const (
	EntryTypeReturn        EntryType = "RETURN"
	EntryTypeReplace       EntryType = "REPLACE"
	EntryTypeComplimentary EntryType = "COMPLIMENTARY"
	EntryTypeResetItem     EntryType = "RESET_ITEM"
	EntryTypeResetAll      EntryType = "RESET_ALL"
	EntryTypeLock          EntryType = "LOCK"
)

// IsValid checks if the type is a valid EntryType
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeReturn, EntryTypeReplace, EntryTypeComplimentary,
		EntryTypeResetItem, EntryTypeResetAll, EntryTypeLock:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}
