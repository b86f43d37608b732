package bitset

import "testing"

func TestSetClearTest(t *testing.T) {
	s := New(130)
	if s.Any() {
		t.Fatal("new set should be empty")
	}
	s.Set(0)
	s.Set(64)
	s.Set(129)
	for _, i := range []int{0, 64, 129} {
		if !s.Test(i) {
			t.Errorf("bit %d should be set", i)
		}
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
	s.Clear(64)
	if s.Test(64) {
		t.Error("bit 64 should be clear")
	}
}

func TestFillRespectsLength(t *testing.T) {
	s := New(70)
	s.Fill()
	if s.Count() != 70 {
		t.Errorf("Count() after Fill = %d, want 70", s.Count())
	}
}

func TestNextSet(t *testing.T) {
	s := New(200)
	s.Set(3)
	s.Set(64)
	s.Set(199)
	var got []int
	for i := s.NextSet(0); i >= 0; i = s.NextSet(i + 1) {
		got = append(got, i)
	}
	want := []int{3, 64, 199}
	if len(got) != len(want) {
		t.Fatalf("NextSet walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NextSet walk = %v, want %v", got, want)
		}
	}
}

func TestBooleanOps(t *testing.T) {
	a := New(128)
	b := New(128)
	a.Set(1)
	a.Set(2)
	a.Set(100)
	b.Set(2)
	b.Set(100)
	b.Set(101)

	and := a.Clone()
	and.And(b)
	if and.Count() != 2 || !and.Test(2) || !and.Test(100) {
		t.Error("And result wrong")
	}

	or := a.Clone()
	or.Or(b)
	if or.Count() != 4 {
		t.Errorf("Or count = %d, want 4", or.Count())
	}

	diff := a.Clone()
	diff.AndNot(b)
	if diff.Count() != 1 || !diff.Test(1) {
		t.Error("AndNot result wrong")
	}
}

func TestFromWordsShares(t *testing.T) {
	backing := make([]uint64, 4)
	a := FromWords(backing[0:2], 128)
	b := FromWords(backing[2:4], 128)
	a.Set(5)
	if b.Any() {
		t.Error("sibling span should be unaffected")
	}
	if backing[0] == 0 {
		t.Error("backing should reflect the span write")
	}
}

func TestForEachAndEqual(t *testing.T) {
	s := New(65)
	s.Set(0)
	s.Set(64)
	sum := 0
	s.ForEach(func(i int) { sum += i })
	if sum != 64 {
		t.Errorf("ForEach sum = %d, want 64", sum)
	}
	if !s.Equal(s.Clone()) {
		t.Error("clone should equal source")
	}
}
