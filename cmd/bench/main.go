package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test    string `usage:"name of the test: SET | BULK"`
	Base    string `usage:"base URL, empty starts an embedded server"`
	N       int64  `usage:"number of keys"`
	Workers int    `usage:"number of workers"`
	Batch   int    `usage:"operations per bulk request"`
}

var cleanups []func()

func main() {

	defer func() {
		fmt.Println("Cleaning up...")
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	c := Config{
		Test:    "set",
		Base:    "",
		N:       100_000,
		Workers: 16,
		Batch:   1000,
	}
	goconfig.Read(&c)

	switch strings.ToUpper(c.Test) {
	case "SET":
		TestSet(c)
	case "BULK":
		TestBulk(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}

}
