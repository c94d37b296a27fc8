package main

import (
	"os"

	mergesubs "github.com/jaym/mergesubs/apps/mergesubs/cmd"
)

func main() {
	os.Exit(mergesubs.Execute())
}
