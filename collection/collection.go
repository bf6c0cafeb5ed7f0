// Package collection defines the contract between sheetsync and the Go code
// it generates.
//
// Every generated record type implements [Record] and every generated
// collection type implements [Collection]. A generated collection file
// registers both through [Register] from its init function, so a binary that
// blank-imports the generated package makes the types resolvable:
//
//	import _ "example.com/game/data/monsters/generated"
//
// The sync engine never constructs or inspects generated types by name; it
// only goes through the factories and methods of a [Handle].
package collection

import (
	"errors"
	"slices"
)

// ErrWrongRecordType is returned by Collection.Append when the record was
// produced by a different generated type.
var ErrWrongRecordType = errors.New("record type does not belong to collection")

// Record is one typed row of a sheet.
type Record interface {
	// Fields lists the settable field identifiers in declaration order.
	Fields() []string

	// SetField assigns an already converted value (int, float64 or string).
	// It reports false when the field is unknown or the value has the wrong type.
	SetField(name string, value any) bool
}

// Collection is an ordered, mutable container of records.
type Collection interface {
	GetItems() []Record
	Count() int
	Clear()
	Append(Record) error
}

// Handle is the capability set registered for one generated sheet.
type Handle struct {
	Namespace      string // Go package name of the generated code
	RecordType     string // e.g. "MonstersRow"
	CollectionType string // e.g. "MonstersCollection"

	NewRecord     func() Record
	NewCollection func() Collection
}

// RecordName returns the fully qualified record type name.
func (h Handle) RecordName() string {
	return QualifiedName(h.Namespace, h.RecordType)
}

// CollectionName returns the fully qualified collection type name.
func (h Handle) CollectionName() string {
	return QualifiedName(h.Namespace, h.CollectionType)
}

// Valid reports whether both factories are present.
func (h Handle) Valid() bool {
	return h.NewRecord != nil && h.NewCollection != nil
}

// HasField reports whether the record type declares the field identifier.
func (h Handle) HasField(name string) bool {
	if h.NewRecord == nil {
		return false
	}
	return slices.Contains(h.NewRecord().Fields(), name)
}

// QualifiedName joins a namespace and a type name.
func QualifiedName(namespace, typeName string) string {
	if namespace == "" {
		return typeName
	}
	return namespace + "." + typeName
}
