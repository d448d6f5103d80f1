package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

func TestSet(c Config) {

	if c.Base == "" {
		_, start, stop := CreateServer(&c)
		defer stop()
		go start()
		time.Sleep(100 * time.Millisecond)
	}

	store := CreateStore(c.Base)
	setURL := fmt.Sprintf("%s/v1/stores/%s:set", c.Base, store)
	getURL := fmt.Sprintf("%s/v1/stores/%s:get", c.Base, store)

	client := NewClient()

	next := int64(-1)
	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			i := atomic.AddInt64(&next, 1)
			if i >= c.N {
				return
			}
			Post(client, setURL, JSON{
				"key":   JSON{"id": i},
				"value": JSON{"n": fmt.Sprint(i)},
			})
		}
	})
	Report("set", c.N, time.Since(t0))

	next = -1
	t1 := time.Now()
	Parallel(c.Workers, func() {
		for {
			i := atomic.AddInt64(&next, 1)
			if i >= c.N {
				return
			}
			Post(client, getURL, JSON{"key": JSON{"id": i}})
		}
	})
	Report("get", c.N, time.Since(t1))
}
