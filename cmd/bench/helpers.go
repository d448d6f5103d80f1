package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fulldump/kvlens/bootstrap"
	"github.com/fulldump/kvlens/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "kvlens_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     1024,
			MaxIdleConnsPerHost: 1024,
			MaxIdleConns:        1024,
		},
		Timeout: 30 * time.Second,
	}
}

// Post sends a JSON body and fails loudly on anything but 2xx.
func Post(client *http.Client, url string, body any) {
	payload, _ := json.Marshal(body)

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Println("ERROR: do request:", err.Error())
		os.Exit(4)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		fmt.Println("ERROR: bad status:", resp.Status)
		io.Copy(os.Stdout, resp.Body)
		os.Exit(5)
	}
	io.Copy(io.Discard, resp.Body)
}

func CreateStore(base string) string {

	name := "store-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	Post(http.DefaultClient, base+"/v1/stores", JSON{
		"name":      name,
		"scope":     JSON{"bench": true},
		"keyFields": []string{"id"},
	})

	return name
}

// CreateServer starts an embedded server on a throwaway directory.
func CreateServer(c *Config) (dir string, start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.StoresFile = ""
	conf.ShowBanner = false
	c.Base = "http://" + conf.HttpAddr

	start, stop = bootstrap.Bootstrap(&conf)
	return
}

func Report(action string, n int64, took time.Duration) {
	fmt.Println(action+":", n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f keys/sec\n", float64(n)/took.Seconds())
}
