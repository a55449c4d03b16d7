package main

import (
	"log"

	"ticket-waitlist/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
