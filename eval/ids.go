package eval

import "github.com/google/uuid"

// NoteID is an opaque stable identifier for a score or performance note.
// Parent/child relations (grace notes, tuplet groups) are stored as a
// NoteID lookup, never as an owning reference.
type NoteID uuid.UUID

// NilNoteID is the zero value, used where a NoteID is optional and unset.
var NilNoteID = NoteID(uuid.Nil)

// NewNoteID returns a fresh, globally unique NoteID.
func NewNoteID() NoteID {
	return NoteID(uuid.New())
}

// IsNil reports whether id is the zero NoteID.
func (id NoteID) IsNil() bool {
	return id == NilNoteID
}

func (id NoteID) String() string {
	return uuid.UUID(id).String()
}
