package timer

import (
	"strings"
	"testing"
	"time"
)

func TestXTimer(t *testing.T) {
	tmr := NewXTimer()
	tmr.Mark("decode")
	time.Sleep(2 * time.Millisecond)
	tmr.Mark("handle")

	out := tmr.Print()
	if !strings.HasPrefix(out, "decode:") || !strings.Contains(out, ",handle:") ||
		!strings.Contains(out, ",total:") {
		t.Errorf("unexpected timer output:%s", out)
	}
	if tmr.Elapsed() < 2*time.Millisecond {
		t.Errorf("elapsed too small:%v", tmr.Elapsed())
	}
}
