package objref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	res := PrefixResolver("/gdc/md/")

	tests := []struct {
		name string
		a, b ObjRef
		res  Resolver
		want bool
	}{
		{name: "same identifier", a: IDRef("x"), b: IDRef("x"), want: true},
		{name: "different identifier", a: IDRef("x"), b: IDRef("y"), want: false},
		{name: "same uri", a: URIRef("/gdc/md/x"), b: URIRef("/gdc/md/x"), want: true},
		{name: "id vs uri without resolver", a: IDRef("x"), b: URIRef("/gdc/md/x"), want: false},
		{name: "id vs uri with resolver", a: IDRef("x"), b: URIRef("/gdc/md/x"), res: res, want: true},
		{name: "uri vs id with resolver", a: URIRef("/gdc/md/x"), b: IDRef("x"), res: res, want: true},
		{name: "id vs other uri", a: IDRef("x"), b: URIRef("/gdc/md/y"), res: res, want: false},
		{name: "type mismatch", a: IDRef("x", "measure"), b: IDRef("x", "attribute"), want: false},
		{name: "type on one side only", a: IDRef("x", "measure"), b: IDRef("x"), want: true},
		{name: "zero vs id", a: ObjRef{}, b: IDRef("x"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b, tt.res))
		})
	}
}

func TestMapResolver(t *testing.T) {
	res := NewMapResolver(Identity{Identifier: "label.state", URI: "/gdc/md/ws/obj/12"})

	assert.True(t, Equal(IDRef("label.state"), URIRef("/gdc/md/ws/obj/12"), res))
	assert.False(t, Equal(IDRef("label.city"), URIRef("/gdc/md/ws/obj/12"), res))

	chained := Chain(nil, res, PrefixResolver("/gdc/md/"))
	assert.True(t, Equal(IDRef("other"), URIRef("/gdc/md/other"), chained))
	assert.True(t, Equal(IDRef("label.state"), URIRef("/gdc/md/ws/obj/12"), chained))
}

func TestKeys(t *testing.T) {
	res := PrefixResolver("/gdc/md/")

	assert.Equal(t, Key(IDRef("x"), res), Key(URIRef("/gdc/md/x"), res))
	assert.Equal(t, "uri:/other/x", Key(URIRef("/other/x"), res))
	assert.Equal(t,
		SortedKey(res, IDRef("b"), URIRef("/gdc/md/a")),
		SortedKey(res, IDRef("a"), IDRef("b")),
	)
}

func TestIdentityMatches(t *testing.T) {
	id := Identity{Identifier: "w1", URI: "/gdc/md/ws/obj/1"}

	assert.True(t, id.Matches(IDRef("w1"), nil))
	assert.True(t, id.Matches(URIRef("/gdc/md/ws/obj/1"), nil))
	assert.False(t, id.Matches(IDRef("w2"), nil))
	assert.False(t, id.Matches(ObjRef{}, nil))

	onlyID := Identity{Identifier: "w1"}
	assert.True(t, onlyID.Matches(URIRef("/gdc/md/w1"), PrefixResolver("/gdc/md/")))
}

func TestDedupe(t *testing.T) {
	res := PrefixResolver("/gdc/md/")
	out := Dedupe([]ObjRef{IDRef("a"), URIRef("/gdc/md/a"), IDRef("b")}, res)
	assert.Equal(t, []ObjRef{IDRef("a"), IDRef("b")}, out)
}
