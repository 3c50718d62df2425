package database

import "database/sql"

// Table and key names of the externally owned store layout.
const (
	glossaryTable = "GLOSSARY"
	infoTable     = "INFO"

	// LastRunKey names the INFO record holding the last activation time.
	LastRunKey = "lastrun"
)

// GlossaryEntry is one row of the GLOSSARY table. Term matching is
// case-sensitive.
type GlossaryEntry struct {
	Term          string         `db:"TERM"`
	Description   sql.NullString `db:"DESCRIPTION"`
	Prerequisites sql.NullString `db:"PREREQS"`
}

// RunInfo is one key/value row of the INFO table.
type RunInfo struct {
	Name  string         `db:"NAME"`
	Value sql.NullString `db:"VAL"`
}
