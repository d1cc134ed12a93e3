package main

import (
	"fmt"
	"os"

	"bebidas_pos/internal"
)

func main() {
	if err := internal.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
