package avsync

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoop(t *testing.T) {
	Convey("Given a running loop", t, func() {
		l := NewLoop()
		defer l.Stop()

		Convey("Posted tasks run in order", func() {
			var got []int
			for i := 0; i < 5; i++ {
				i := i
				l.Post(func() { got = append(got, i) })
			}
			l.Do(func() {})
			So(got, ShouldResemble, []int{0, 1, 2, 3, 4})
		})

		Convey("Coalesced tasks only keep the latest of a kind", func() {
			block := make(chan struct{})
			l.Post(func() { <-block })

			var got []string
			l.PostCoalesced("tick", func() { got = append(got, "tick1") })
			l.Post(func() { got = append(got, "other") })
			l.PostCoalesced("tick", func() { got = append(got, "tick2") })
			close(block)

			l.Do(func() {})
			So(got, ShouldResemble, []string{"other", "tick2"})
		})

		Convey("Timers fire on the loop", func() {
			var mu sync.Mutex
			fired := false
			done := make(chan struct{})
			l.AfterFunc(5*time.Millisecond, func() {
				mu.Lock()
				fired = true
				mu.Unlock()
				close(done)
			})
			<-done
			mu.Lock()
			So(fired, ShouldBeTrue)
			mu.Unlock()
		})

		Convey("Stopped timers never fire", func() {
			fired := make(chan struct{}, 1)
			tm := l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
			So(tm.Stop(), ShouldBeTrue)
			select {
			case <-fired:
				So("timer fired", ShouldBeEmpty)
			case <-time.After(60 * time.Millisecond):
			}
		})

		Convey("After Stop nothing more is accepted", func() {
			l.Stop()
			<-l.Done()
			So(l.Post(func() {}), ShouldBeFalse)

			ran := false
			l.Do(func() { ran = true })
			So(ran, ShouldBeFalse)
		})
	})
}
