package nvenc

import "testing"

func TestAspectRatio(t *testing.T) {
	cases := []struct {
		w, h       uint32
		wantW      uint32
		wantH      uint32
	}{
		{1920, 1080, 16, 9},
		{800, 600, 4, 3},
		{3840, 2160, 16, 9},
	}
	for _, c := range cases {
		gotW, gotH := AspectRatio(c.w, c.h)
		if gotW != c.wantW || gotH != c.wantH {
			t.Errorf("AspectRatio(%d,%d) = %d:%d, want %d:%d", c.w, c.h, gotW, gotH, c.wantW, c.wantH)
		}
	}
}

func TestBufferFormat_UndefinedFails(t *testing.T) {
	if _, ok := bufferFormat(PixelFormat(99)); ok {
		t.Fatal("expected an unrecognized PixelFormat to fail mapping")
	}
}
