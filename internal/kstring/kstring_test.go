package kstring

import "testing"

func TestConcatTruncatesAtK(t *testing.T) {
	Configure(3)

	a := FromSlice([]int{1, 2})
	b := FromSlice([]int{3, 4, 5})

	got := a.Concat(b)
	want := FromSlice([]int{1, 2, 3})
	if !got.Equal(want) {
		t.Fatalf("Concat truncation: got %v want %v", got.Symbols(), want.Symbols())
	}
}

func TestConcatIdentityAtMaxLength(t *testing.T) {
	Configure(2)

	a := FromSlice([]int{1, 2})
	got := a.Concat(FromSlice([]int{9}))
	if !got.Equal(a) {
		t.Fatalf("Concat of a maximal KString should be the identity, got %v", got.Symbols())
	}
}

func TestConcatEmptyIsIdentity(t *testing.T) {
	Configure(3)

	a := FromSlice([]int{1})
	if !a.Concat(Empty()).Equal(a) {
		t.Fatal("a ⊕ ε should equal a")
	}
	if !Empty().Concat(a).Equal(a) {
		t.Fatal("ε ⊕ a should equal a")
	}
}

func TestCompareLexicographicThenLength(t *testing.T) {
	Configure(3)

	short := FromSlice([]int{1})
	long := FromSlice([]int{1, 2})
	other := FromSlice([]int{2})

	if !short.Less(long) {
		t.Fatal("a shared prefix should sort the shorter KString first")
	}
	if !long.Less(other) {
		t.Fatal("[1,2] should sort before [2]")
	}
}

func TestMapKeyDistinguishesLength(t *testing.T) {
	Configure(3)

	// [1, 0x0201] would alias with [1, 2, 1] under a naive byte-level key;
	// MapKey must keep every symbol's full width distinct.
	a := KString{syms: []int32{1, 0x0201}}
	b := FromSlice([]int{1, 2, 1})
	if a.MapKey() == b.MapKey() {
		t.Fatal("MapKey collided across KStrings with different symbol counts")
	}
}

func TestSetConcatMaximalLengthIsIdentity(t *testing.T) {
	Configure(3)

	a := NewSet(FromSlice([]int{1, 2, 3}), Empty())
	b := NewSet(FromSlice([]int{9}))

	got := a.Concat(b)
	// Empty() ⊕ {9} = {9}; the maximal element contributes unchanged.
	want := NewSet(FromSlice([]int{1, 2, 3}), FromSlice([]int{9}))
	if got.Len() != want.Len() {
		t.Fatalf("got %d items, want %d", got.Len(), want.Len())
	}
	for i, it := range got.Items() {
		if !it.Equal(want.Items()[i]) {
			t.Fatalf("item %d: got %v want %v", i, it.Symbols(), want.Items()[i].Symbols())
		}
	}
}

func TestSetConcatEmptyOperandYieldsEmptySet(t *testing.T) {
	Configure(3)

	a := NewSet(FromSlice([]int{1}))
	got := a.Concat(Set{})
	if got.Len() != 0 {
		t.Fatalf("concatenating with an empty set should yield an empty set, got %d items", got.Len())
	}
}

func TestSetMergeDedups(t *testing.T) {
	Configure(2)

	a := NewSet(FromSlice([]int{1}), Empty())
	b := NewSet(FromSlice([]int{1}), FromSlice([]int{2}))

	got := a.Merge(b)
	if got.Len() != 3 {
		t.Fatalf("got %d items, want 3 (ε, [1], [2])", got.Len())
	}
}

func TestOneZeroKPanics(t *testing.T) {
	Configure(0)
	defer func() {
		if recover() == nil {
			t.Fatal("One should panic when K is 0")
		}
	}()
	One(5)
}
