package reconcile

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The functions in this file derive quantities and values from the audit
// trail instead of storing running counters. Reset entries zero out prior
// contributions during the scan, so a derived figure is always consistent
// with the trail that produced it.

// ReturnedQuantity derives the total quantity returned against a line,
// net of resets. The scan honors append order: a RESET_ITEM targeting the
// line's root, or a RESET_ALL, discards everything accumulated so far.
func (o *Order) ReturnedQuantity(lineID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for idx := range o.Entries {
		e := &o.Entries[idx]
		switch e.Type {
		case EntryTypeReturn:
			if e.LineID != nil && *e.LineID == lineID {
				total = total.Add(e.Quantity)
			}
		case EntryTypeResetItem:
			if o.entryResetsLine(e, lineID) {
				total = decimal.Zero
			}
		case EntryTypeResetAll:
			total = decimal.Zero
		}
	}
	return total
}

// ReplacedQuantity derives the total quantity replaced out of a line,
// net of resets.
func (o *Order) ReplacedQuantity(lineID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for idx := range o.Entries {
		e := &o.Entries[idx]
		switch e.Type {
		case EntryTypeReplace:
			if e.LineID != nil && *e.LineID == lineID {
				total = total.Add(e.Quantity)
			}
		case EntryTypeResetItem:
			if o.entryResetsLine(e, lineID) {
				total = decimal.Zero
			}
		case EntryTypeResetAll:
			total = decimal.Zero
		}
	}
	return total
}

// entryResetsLine reports whether a RESET_ITEM entry clears contributions
// recorded against the given line. The reset targets a root line; it
// clears the root itself and every descendant, which is why entries carry
// the root ancestor captured at append time - the descendant line may no
// longer exist when the derivation runs.
func (o *Order) entryResetsLine(reset *AuditEntry, lineID uuid.UUID) bool {
	if reset.LineID == nil {
		return false
	}
	if *reset.LineID == lineID {
		return true
	}
	for idx := range o.Entries {
		e := &o.Entries[idx]
		if e.RootLineID != nil && *e.RootLineID == *reset.LineID &&
			e.LineID != nil && *e.LineID == lineID {
			return true
		}
	}
	return false
}

// TotalReturnedValue derives the monetary value of all effective returns,
// priced at entry time. This is the debit memo amount captured by Lock.
func (o *Order) TotalReturnedValue() decimal.Decimal {
	// Accumulate per root line so a RESET_ITEM can discard exactly the
	// contributions belonging to its subtree.
	perRoot := make(map[uuid.UUID]decimal.Decimal)
	for idx := range o.Entries {
		e := &o.Entries[idx]
		switch e.Type {
		case EntryTypeReturn:
			if e.RootLineID != nil {
				perRoot[*e.RootLineID] = perRoot[*e.RootLineID].Add(e.Value())
			}
		case EntryTypeResetItem:
			if e.LineID != nil {
				delete(perRoot, *e.LineID)
			}
		case EntryTypeResetAll:
			perRoot = make(map[uuid.UUID]decimal.Decimal)
		}
	}
	total := decimal.Zero
	for _, v := range perRoot {
		total = total.Add(v)
	}
	return total
}

// TotalReplacedValue derives the monetary value of all effective
// replacements, priced at the replaced line's price at entry time.
func (o *Order) TotalReplacedValue() decimal.Decimal {
	perRoot := make(map[uuid.UUID]decimal.Decimal)
	for idx := range o.Entries {
		e := &o.Entries[idx]
		switch e.Type {
		case EntryTypeReplace:
			if e.RootLineID != nil {
				perRoot[*e.RootLineID] = perRoot[*e.RootLineID].Add(e.Value())
			}
		case EntryTypeResetItem:
			if e.LineID != nil {
				delete(perRoot, *e.LineID)
			}
		case EntryTypeResetAll:
			perRoot = make(map[uuid.UUID]decimal.Decimal)
		}
	}
	total := decimal.Zero
	for _, v := range perRoot {
		total = total.Add(v)
	}
	return total
}

// CheckConservation verifies that for every root line the derived
// quantities and the live net still add up to the delivered original:
// returned + replaced + net = original. Returns the IDs of lines that
// violate the identity; an empty slice means the ledger is consistent.
func (o *Order) CheckConservation() []uuid.UUID {
	var violations []uuid.UUID
	for _, line := range o.RootLines() {
		sum := o.ReturnedQuantity(line.ID).
			Add(o.ReplacedQuantity(line.ID)).
			Add(line.NetQuantity)
		if !sum.Equal(line.OriginalQuantity) {
			violations = append(violations, line.ID)
		}
	}
	return violations
}
