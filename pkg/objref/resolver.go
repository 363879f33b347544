package objref

import (
	"strings"
	"sync"
)

// Resolver maps between the identifier and URI forms of the same object.
type Resolver interface {
	IdentifierOf(uri string) (string, bool)
	URIOf(identifier string) (string, bool)
}

// Identity is the id/uri pair every metadata object carries.
type Identity struct {
	Identifier string `json:"identifier,omitempty" bson:"identifier,omitempty"`
	URI        string `json:"uri,omitempty" bson:"uri,omitempty"`
}

func (i Identity) Ref() ObjRef {
	if i.Identifier != "" {
		return IDRef(i.Identifier)
	}
	return URIRef(i.URI)
}

// Matches checks r against both forms of the identity before falling back to the resolver.
func (i Identity) Matches(r ObjRef, res Resolver) bool {
	if r.IsZero() {
		return false
	}
	if r.Identifier != "" && r.Identifier == i.Identifier {
		return true
	}
	if r.URI != "" && r.URI == i.URI {
		return true
	}
	if i.Identifier != "" && Equal(IDRef(i.Identifier), r, res) {
		return true
	}
	return i.URI != "" && Equal(URIRef(i.URI), r, res)
}

// MapResolver is a Resolver backed by a pair of lookup tables. Safe for concurrent use.
type MapResolver struct {
	mu    sync.RWMutex
	byID  map[string]string
	byURI map[string]string
}

func NewMapResolver(identities ...Identity) *MapResolver {
	m := &MapResolver{
		byID:  make(map[string]string),
		byURI: make(map[string]string),
	}
	for _, i := range identities {
		m.Add(i)
	}
	return m
}

func (m *MapResolver) Add(i Identity) {
	if i.Identifier == "" || i.URI == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[i.Identifier] = i.URI
	m.byURI[i.URI] = i.Identifier
}

func (m *MapResolver) IdentifierOf(uri string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byURI[uri]
	return id, ok
}

func (m *MapResolver) URIOf(identifier string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uri, ok := m.byID[identifier]
	return uri, ok
}

// PrefixResolver treats URIs as prefix+identifier, e.g. "/gdc/md/" + "x".
type PrefixResolver string

func (p PrefixResolver) IdentifierOf(uri string) (string, bool) {
	if !strings.HasPrefix(uri, string(p)) || len(uri) == len(p) {
		return "", false
	}
	return strings.TrimPrefix(uri, string(p)), true
}

func (p PrefixResolver) URIOf(identifier string) (string, bool) {
	if identifier == "" {
		return "", false
	}
	return string(p) + identifier, true
}

type chain []Resolver

// Chain asks each resolver in turn; nil entries are skipped.
func Chain(resolvers ...Resolver) Resolver {
	out := make(chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (c chain) IdentifierOf(uri string) (string, bool) {
	for _, r := range c {
		if id, ok := r.IdentifierOf(uri); ok {
			return id, true
		}
	}
	return "", false
}

func (c chain) URIOf(identifier string) (string, bool) {
	for _, r := range c {
		if uri, ok := r.URIOf(identifier); ok {
			return uri, true
		}
	}
	return "", false
}
