package delaytick

import (
	"math/rand"
	"testing"
	"time"
)

func TestFirstTickRespectsSplayLowerBound(t *testing.T) {
	d := 20 * time.Millisecond
	start := time.Now()
	c := New(rand.NewSource(1), d)
	<-c
	if elapsed := time.Since(start); elapsed < d/2 {
		t.Errorf("first tick after %v, want at least %v", elapsed, d/2)
	}
}

func TestTicksContinueAfterSplay(t *testing.T) {
	c := New(rand.NewSource(1), 5*time.Millisecond)
	for i := 0; i < 3; i++ {
		select {
		case <-c:
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d did not arrive", i)
		}
	}
}
