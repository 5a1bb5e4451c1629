package domain

import (
	"sort"
	"strings"
)

// TypeField is the reserved discriminator key naming a record's semantic type.
const TypeField = "$type"

// RecordTypeServer is the record type collected by default.
const RecordTypeServer = "app.mcp.server"

// Record is a decoded block value classified by its discriminator.
// The concrete variants are ServerRecord, TargetRecord and
// UnrecognizedRecord; the filter drops the last one.
type Record interface {
	// Type returns the discriminator value, or "" when there is none.
	Type() string

	// Fields returns the record exactly as decoded.
	Fields() map[string]any

	isRecord()
}

// ServerRecord is an app.mcp.server record.
type ServerRecord struct {
	fields map[string]any
}

// Type returns RecordTypeServer.
func (r ServerRecord) Type() string { return RecordTypeServer }

// Fields returns the decoded record.
func (r ServerRecord) Fields() map[string]any { return r.fields }

// Name returns the display name, or "" when absent.
func (r ServerRecord) Name() string { return stringField(r.fields, "name") }

// Identity returns the subject identity, or "" when absent.
func (r ServerRecord) Identity() string { return stringField(r.fields, "did") }

func (ServerRecord) isRecord() {}

// TargetRecord is a record of any other configured target type.
type TargetRecord struct {
	recordType string
	fields     map[string]any
}

// Type returns the discriminator value.
func (r TargetRecord) Type() string { return r.recordType }

// Fields returns the decoded record.
func (r TargetRecord) Fields() map[string]any { return r.fields }

func (TargetRecord) isRecord() {}

// UnrecognizedRecord is any value that is not a target record: non-maps,
// maps without a discriminator, and maps whose type is not targeted.
type UnrecognizedRecord struct {
	recordType string
	value      any
}

// Type returns the discriminator value, if the value had one.
func (r UnrecognizedRecord) Type() string { return r.recordType }

// Fields returns the value when it is a map, otherwise nil.
func (r UnrecognizedRecord) Fields() map[string]any {
	m, _ := r.value.(map[string]any)
	return m
}

// Value returns the raw decoded value.
func (r UnrecognizedRecord) Value() any { return r.value }

func (UnrecognizedRecord) isRecord() {}

// TargetSet is the configured allow-list of record types.
type TargetSet map[string]struct{}

// NewTargetSet builds a set from type names, ignoring blanks.
func NewTargetSet(types ...string) TargetSet {
	set := make(TargetSet, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether t is targeted.
func (s TargetSet) Contains(t string) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the targeted types in lexical order.
func (s TargetSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ClassifyRecord turns a decoded value into a Record variant.
func ClassifyRecord(value any, targets TargetSet) Record {
	fields, ok := value.(map[string]any)
	if !ok {
		return UnrecognizedRecord{value: value}
	}

	recordType, ok := fields[TypeField].(string)
	if !ok || !targets.Contains(recordType) {
		return UnrecognizedRecord{recordType: recordType, value: value}
	}

	if recordType == RecordTypeServer {
		return ServerRecord{fields: fields}
	}
	return TargetRecord{recordType: recordType, fields: fields}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
