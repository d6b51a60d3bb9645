package main

import (
	"os"

	"github.com/bayviewassociation/memberdb/memberdbservice"
)

func main() {
	if err := memberdbservice.Run(); err != nil {
		os.Exit(1)
	}
}
