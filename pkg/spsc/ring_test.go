package spsc

import (
	"sync"
	"testing"
)

func TestChannel_PowerOfTwoRejection(t *testing.T) {
	_, _, ok := Channel(make([]int, 3))
	if ok {
		t.Fatal("expected Channel to reject a non-power-of-two length")
	}
}

func TestChannel_SizeOneDegeneratesToPingPong(t *testing.T) {
	w, r, ok := Channel([]int{0})
	if !ok {
		t.Fatal("N=1 must be accepted")
	}

	for i := 0; i < 50; i++ {
		Write(w, i, func(_ int, cell *int, v int) struct{} {
			*cell = v
			return struct{}{}
		})
		got := Read(r, func(cell *int) int { return *cell })
		if got != i {
			t.Fatalf("iteration %d: want %d, got %d", i, i, got)
		}
	}
}

// TestChannel_SPSCSanity is scenario 1 from spec.md §8: N=8, writer writes
// 0..100 in order, reader observes the same sequence.
func TestChannel_SPSCSanity(t *testing.T) {
	const n = 100
	w, r, ok := Channel(make([]int, 8))
	if !ok {
		t.Fatal("unexpected construction failure")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			Write(w, i, func(_ int, cell *int, v int) struct{} {
				*cell = v
				return struct{}{}
			})
		}
	}()

	for i := 0; i < n; i++ {
		got := Read(r, func(cell *int) int { return *cell })
		if got != i {
			t.Fatalf("read %d: want %d, got %d", i, i, got)
		}
	}
	wg.Wait()
}

// bigStruct is a 128-bit value used by TestChannel_CapacityStress to
// detect torn reads: every field must reconstruct exactly as written.
type bigStruct struct {
	A, B uint64
}

// TestChannel_CapacityStress is scenario 2 from spec.md §8: N=2, one
// million write/read pairs of a 128-bit struct, no deadlock, no torn
// values.
func TestChannel_CapacityStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping capacity stress in -short mode")
	}

	const iterations = 1_000_000
	w, r, ok := Channel(make([]bigStruct, 2))
	if !ok {
		t.Fatal("unexpected construction failure")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < iterations; i++ {
			v := bigStruct{A: i, B: ^i}
			Write(w, v, func(_ int, cell *bigStruct, in bigStruct) struct{} {
				*cell = in
				return struct{}{}
			})
		}
	}()

	for i := uint64(0); i < iterations; i++ {
		got := Read(r, func(cell *bigStruct) bigStruct { return *cell })
		if got.A != i || got.B != ^i {
			t.Fatalf("torn value at %d: got %+v", i, got)
		}
	}
	wg.Wait()
}

// TestChannel_WriterYieldsOnFull verifies Write does not advance head
// until a Read has made room, per spec.md §8's boundary behaviours.
func TestChannel_WriterYieldsOnFull(t *testing.T) {
	w, r, ok := Channel(make([]int, 2))
	if !ok {
		t.Fatal("unexpected construction failure")
	}

	fill := func(v int) {
		Write(w, v, func(_ int, cell *int, in int) struct{} {
			*cell = in
			return struct{}{}
		})
	}
	fill(1)
	fill(2)

	done := make(chan struct{})
	go func() {
		fill(3)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Write on a full buffer returned before a Read freed a slot")
	default:
	}

	got := Read(r, func(cell *int) int { return *cell })
	if got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	<-done // Write must now be able to complete.

	got = Read(r, func(cell *int) int { return *cell })
	if got != 2 {
		t.Fatalf("want 2, got %d", got)
	}
	got = Read(r, func(cell *int) int { return *cell })
	if got != 3 {
		t.Fatalf("want 3, got %d", got)
	}
}

func TestChannel_SlotIndexInRange(t *testing.T) {
	w, r, ok := Channel(make([]int, 4))
	if !ok {
		t.Fatal("unexpected construction failure")
	}

	seen := make(map[int]bool)
	for i := 0; i < 16; i++ {
		idx := Write(w, i, func(index int, cell *int, v int) int {
			*cell = v
			return index
		})
		if idx < 0 || idx >= 4 {
			t.Fatalf("index %d out of range", idx)
		}
		seen[idx] = true
		Read(r, func(cell *int) struct{} { return struct{}{} })
	}
	if len(seen) != 4 {
		t.Fatalf("expected all 4 slot indices to be exercised, saw %v", seen)
	}
}
