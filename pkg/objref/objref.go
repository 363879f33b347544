package objref

import (
	"sort"
	"strings"
)

// ObjRef points at a metadata object either by its stable identifier or by its URI.
type ObjRef struct {
	Identifier string `json:"identifier,omitempty" bson:"identifier,omitempty"`
	URI        string `json:"uri,omitempty" bson:"uri,omitempty"`
	Type       string `json:"type,omitempty" bson:"type,omitempty"`
}

func IDRef(identifier string, objType ...string) ObjRef {
	ref := ObjRef{Identifier: identifier}
	if len(objType) > 0 {
		ref.Type = objType[0]
	}
	return ref
}

func URIRef(uri string) ObjRef {
	return ObjRef{URI: uri}
}

func (r ObjRef) IsIdentifier() bool {
	return r.Identifier != ""
}

func (r ObjRef) IsURI() bool {
	return r.Identifier == "" && r.URI != ""
}

func (r ObjRef) IsZero() bool {
	return r.Identifier == "" && r.URI == ""
}

// String is the canonical serialization used for cache keys and map lookups.
func (r ObjRef) String() string {
	switch {
	case r.Identifier != "":
		return "id:" + r.Type + ":" + r.Identifier
	case r.URI != "":
		return "uri:" + r.URI
	default:
		return "<empty>"
	}
}

// Equal reports whether two refs denote the same object. Refs of different kinds
// are compared through the resolver; a nil resolver only matches same-kind refs.
func Equal(a, b ObjRef, res Resolver) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	if a.Type != "" && b.Type != "" && a.Type != b.Type {
		return false
	}
	if a.Identifier != "" && b.Identifier != "" {
		return a.Identifier == b.Identifier
	}
	if a.URI != "" && b.URI != "" {
		return a.URI == b.URI
	}
	if res == nil {
		return false
	}

	id, uri := a.Identifier, b.URI
	if id == "" {
		id, uri = b.Identifier, a.URI
	}
	if resolved, ok := res.URIOf(id); ok && resolved == uri {
		return true
	}
	if resolved, ok := res.IdentifierOf(uri); ok && resolved == id {
		return true
	}
	return false
}

// Canonical rewrites a URI ref into its identifier form when the resolver knows it.
func Canonical(r ObjRef, res Resolver) ObjRef {
	if r.Identifier != "" {
		return ObjRef{Identifier: r.Identifier, Type: r.Type}
	}
	if res != nil && r.URI != "" {
		if id, ok := res.IdentifierOf(r.URI); ok {
			return ObjRef{Identifier: id, Type: r.Type}
		}
	}
	return ObjRef{URI: r.URI, Type: r.Type}
}

// Key is the canonical string of r after resolution. Type is dropped so that
// typed and untyped refs of the same object share a key.
func Key(r ObjRef, res Resolver) string {
	c := Canonical(r, res)
	c.Type = ""
	return c.String()
}

// SortedKey joins the keys of refs in an order-insensitive way.
func SortedKey(res Resolver, refs ...ObjRef) string {
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, Key(r, res))
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

func Contains(refs []ObjRef, r ObjRef, res Resolver) bool {
	return IndexOf(refs, r, res) >= 0
}

func IndexOf(refs []ObjRef, r ObjRef, res Resolver) int {
	for i, candidate := range refs {
		if Equal(candidate, r, res) {
			return i
		}
	}
	return -1
}

// Dedupe keeps the first occurrence of every ref.
func Dedupe(refs []ObjRef, res Resolver) []ObjRef {
	out := make([]ObjRef, 0, len(refs))
	for _, r := range refs {
		if !Contains(out, r, res) {
			out = append(out, r)
		}
	}
	return out
}
