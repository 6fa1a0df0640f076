package mcp

import (
	"fmt"
	"strings"
)

// RecordURITemplate is the resource template for a single record.
const RecordURITemplate = "patchlog://records/{id}"

const recordURIPrefix = "patchlog://records/"

// RecordURI builds resource URIs for records.
type RecordURI struct {
	id string
}

// NewRecordURI creates a RecordURI for id.
func NewRecordURI(id string) RecordURI {
	return RecordURI{id: id}
}

// ParseRecordURI extracts the record id from a patchlog:// URI.
func ParseRecordURI(uri string) (RecordURI, error) {
	id, ok := strings.CutPrefix(uri, recordURIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return RecordURI{}, fmt.Errorf("not a record uri: %q", uri)
	}
	return RecordURI{id: id}, nil
}

// ID returns the record id.
func (u RecordURI) ID() string { return u.id }

// String builds the patchlog:// URI string.
func (u RecordURI) String() string {
	return recordURIPrefix + u.id
}
