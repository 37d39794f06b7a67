package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker prune | check-dictionary | schedule")
	}

	switch os.Args[1] {
	case "prune":
		RunPrune()
	case "check-dictionary":
		RunCheckDictionary()
	case "schedule":
		RunSchedule()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
