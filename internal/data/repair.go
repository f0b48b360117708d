package data

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// shapeCheck reports whether a decoded record carries the fields its entity
// requires beyond the integer id.
type shapeCheck func(fields map[string]any) bool

// RepairReport describes what load-time filtering discarded.
type RepairReport struct {
	Dropped   map[string]int `json:"dropped"`   // collection name -> records removed
	Malformed bool           `json:"malformed"` // the stored value could not be decoded at all
}

func newRepairReport() RepairReport {
	return RepairReport{Dropped: map[string]int{}}
}

// Dirty reports whether the stored value differs from the repaired one.
func (r RepairReport) Dirty() bool {
	return r.Malformed || len(r.Dropped) > 0
}

func (r *RepairReport) drop(collection string, n int) {
	if n > 0 {
		r.Dropped[collection] += n
	}
}

// documentCollections lists the collection names held under DocumentKey.
var documentCollections = []string{"books", "borrowers", "librarians", "borrowings", "membershipApplications"}

var (
	// idOnly accepts any object that already passed the id and signature checks.
	idOnly         shapeCheck = func(map[string]any) bool { return true }
	borrowingShape shapeCheck = func(f map[string]any) bool {
		return isInteger(f["borrowerId"]) &&
			(isInteger(f["bookId"]) || isInteger(f["researchId"])) &&
			requireStrings("borrowDate", "dueDate", "status")(f)
	}
)

// RepairDocument decodes the library document, keeping only structurally
// valid records. An empty input yields the empty default without being
// reported as dirty.
func RepairDocument(raw []byte) (*Document, RepairReport) {
	report := newRepairReport()
	doc := EmptyDocument()
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, report
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		report.Malformed = true
		return doc, report
	}

	doc.Books = filterRecords[Book](top["books"], "books", idOnly, &report)
	doc.Borrowers = filterRecords[Borrower](top["borrowers"], "borrowers", idOnly, &report)
	doc.Librarians = filterRecords[Librarian](top["librarians"], "librarians", idOnly, &report)
	doc.Borrowings = filterRecords[Borrowing](top["borrowings"], "borrowings", borrowingShape, &report)
	doc.MembershipApplications = filterRecords[MembershipApplication](top["membershipApplications"], "membershipApplications", idOnly, &report)
	return doc, report
}

// filterRecords decodes one collection. A collection that is not a JSON array
// is discarded whole; array elements are kept only if decodeRecord accepts them.
func filterRecords[T any](raw json.RawMessage, name string, shape shapeCheck, report *RepairReport) []*T {
	out := []*T{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		var members map[string]json.RawMessage
		if json.Unmarshal(trimmed, &members) == nil && len(members) > 0 {
			report.drop(name, len(members))
		} else {
			report.drop(name, 1)
		}
		return out
	}

	for _, elem := range elems {
		rec, ok := decodeRecord[T](elem, shape)
		if !ok {
			report.drop(name, 1)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// decodeRecord accepts elem only if it is a JSON object without the
// corruption signature, with an integer id, passing shape, and decoding
// cleanly into T.
func decodeRecord[T any](elem json.RawMessage, shape shapeCheck) (*T, bool) {
	fields, ok := decodeObject(elem)
	if !ok || hasCorruptionSignature(fields) || !isInteger(fields["id"]) || !shape(fields) {
		return nil, false
	}
	var rec T
	if err := json.Unmarshal(elem, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func decodeObject(raw []byte) (map[string]any, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// hasCorruptionSignature reports whether an object looks like a serialized
// array: any key of at most three characters that parses as an integer.
func hasCorruptionSignature(fields map[string]any) bool {
	for k := range fields {
		if len(k) > 3 {
			continue
		}
		if _, err := strconv.Atoi(k); err == nil {
			return true
		}
	}
	return false
}

// collectionCorrupted reports whether a stored collection carries the
// signature, either as a whole (an array-like object) or in any element.
func collectionCorrupted(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}
	switch c := v.(type) {
	case map[string]any:
		return hasCorruptionSignature(c)
	case []any:
		for _, elem := range c {
			if m, ok := elem.(map[string]any); ok && hasCorruptionSignature(m) {
				return true
			}
		}
	}
	return false
}

// CorruptedCollections returns the names of the document collections that
// carry the corruption signature, in document order.
func CorruptedCollections(raw []byte) []string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}
	var names []string
	for _, name := range documentCollections {
		if collectionCorrupted(top[name]) {
			names = append(names, name)
		}
	}
	return names
}

func isInteger(v any) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	_, err := n.Int64()
	return err == nil
}

func requireStrings(keys ...string) shapeCheck {
	return func(f map[string]any) bool {
		for _, k := range keys {
			if _, ok := f[k].(string); !ok {
				return false
			}
		}
		return true
	}
}

// CleanupResult reports what AggressiveCleanup discarded.
type CleanupResult struct {
	Reset       bool     `json:"reset"`       // the whole library document was reinitialized
	Collections []string `json:"collections"` // collections found carrying the signature
}

// AggressiveCleanup scans the stored documents for any collection carrying
// the corruption signature. In reset mode the entire library document,
// valid collections included, is replaced by the empty default; in isolate
// mode only the affected collections are emptied. Side collections are
// always handled on their own.
func (s *Store) AggressiveCleanup(ctx context.Context) (CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := CleanupResult{Collections: []string{}}

	raw, err := s.readRaw(ctx, DocumentKey)
	if err != nil {
		return result, err
	}
	if corrupted := CorruptedCollections(raw); len(corrupted) > 0 {
		result.Collections = append(result.Collections, corrupted...)
		switch s.recovery {
		case RecoverIsolate:
			var top map[string]json.RawMessage
			if err := json.Unmarshal(raw, &top); err != nil {
				return result, err
			}
			for _, name := range corrupted {
				top[name] = json.RawMessage(`[]`)
			}
			if err := s.writeJSON(ctx, DocumentKey, top); err != nil {
				return result, err
			}
			s.logger.Warn("emptied corrupted collections", "key", DocumentKey, "collections", corrupted)
		default:
			if err := s.writeJSON(ctx, DocumentKey, EmptyDocument()); err != nil {
				return result, err
			}
			result.Reset = true
			s.logger.Warn("corrupted library document reset to defaults", "key", DocumentKey, "collections", corrupted)
		}
	}

	for _, list := range []listSpec{feedbackList, researchList} {
		raw, err := s.readRaw(ctx, list.key)
		if err != nil {
			return result, err
		}
		if !collectionCorrupted(raw) {
			continue
		}
		if err := s.backend.Put(ctx, list.key, []byte(`[]`)); err != nil {
			return result, err
		}
		result.Collections = append(result.Collections, list.name)
		s.logger.Warn("corrupted collection reset", "key", list.key)
	}
	return result, nil
}
