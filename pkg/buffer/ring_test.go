package buffer

import "testing"

func TestPCMRing_WriteReadRoundTrip(t *testing.T) {
	rb := New(8)

	samples := []int16{100, -200, 300, -400, 500}
	n := rb.Write(samples)
	if n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}

	out := make([]int16, 5)
	got, closed := rb.Read(out)
	if got != 5 || closed {
		t.Fatalf("Read returned (%d, %v), want (5, false)", got, closed)
	}
	for i, s := range samples {
		if out[i] != s {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], s)
		}
	}
}

func TestPCMRing_WrapAround(t *testing.T) {
	rb := New(4)

	rb.Write([]int16{1, 2, 3})
	out := make([]int16, 2)
	rb.Read(out) // drain 2, r=2, w=3

	rb.Write([]int16{4, 5, 6}) // wraps past the end of the backing array

	remaining := make([]int16, 4)
	n, _ := rb.Read(remaining)
	if n != 4 {
		t.Fatalf("expected to read 4 remaining samples, got %d", n)
	}
	want := []int16{3, 4, 5, 6}
	for i, s := range want {
		if remaining[i] != s {
			t.Fatalf("remaining[%d] = %d, want %d", i, remaining[i], s)
		}
	}
}

func TestPCMRing_FullWriteIsPartial(t *testing.T) {
	rb := New(4)
	n := rb.Write([]int16{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("Write into a 4-sample buffer returned %d, want 4", n)
	}
}

func TestPCMRing_CloseDrainsThenReportsClosed(t *testing.T) {
	rb := New(4)
	rb.Write([]int16{1, 2})
	rb.Close()

	if n := rb.Write([]int16{3}); n != 0 {
		t.Fatalf("Write after Close returned %d, want 0", n)
	}

	out := make([]int16, 2)
	n, closed := rb.Read(out)
	if n != 2 || !closed {
		t.Fatalf("first drain: got (%d, %v), want (2, true)", n, closed)
	}

	n, closed = rb.Read(out)
	if n != 0 || !closed {
		t.Fatalf("second drain: got (%d, %v), want (0, true)", n, closed)
	}
}

func TestPCMRing_ClearDiscardsUnread(t *testing.T) {
	rb := New(8)
	rb.Write([]int16{1, 2, 3})
	rb.Clear()
	if !rb.IsEmpty() {
		t.Fatal("expected buffer to be empty after Clear")
	}
}
