package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/kvlens/bootstrap"
	"github.com/fulldump/kvlens/configuration"
)

var banner = `
 _          _                
| | ___   _| | ___ _ __  ___ 
| |/ / \ / / |/ _ \ '_ \/ __|
|   < \ V /| |  __/ | | \__ \
|_|\_\ \_/ |_|\___|_| |_|___/
               version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
