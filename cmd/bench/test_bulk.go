package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fulldump/kvlens/database"
)

func TestBulk(c Config) {

	createServer := c.Base == ""

	var start, stop func()
	var dataDir string
	if createServer {
		dataDir, start, stop = CreateServer(&c)
		go start()
		time.Sleep(100 * time.Millisecond)
	}

	store := CreateStore(c.Base)
	bulkURL := fmt.Sprintf("%s/v1/stores/%s:bulk", c.Base, store)

	client := NewClient()

	next := int64(0)
	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			from := atomic.AddInt64(&next, int64(c.Batch)) - int64(c.Batch)
			if from >= c.N {
				return
			}
			to := min(from+int64(c.Batch), c.N)

			operations := make([]JSON, 0, to-from)
			for i := from; i < to; i++ {
				operations = append(operations, JSON{
					"op":    "append",
					"value": JSON{"id": i, "worker": i % int64(c.Workers)},
				})
			}
			Post(client, bulkURL, JSON{"operations": operations})
		}
	})
	Report("appended", c.N, time.Since(t0))

	if !createServer {
		return
	}

	stop() // Stop the server

	t1 := time.Now()
	db := database.NewDatabase(&database.Config{Dir: dataDir})
	if err := db.Load(); err != nil {
		fmt.Println("ERROR: load:", err.Error())
		return
	}
	Report("reopened", c.N, time.Since(t1))
}
