// Command mips5sim is a cycle-accurate five-stage MIPS32 pipeline
// simulator with an integrated L1 data cache, built on the akita
// simulation framework's cache directory.
//
// For the full interactive CLI, use: go run ./cmd/mipssim <program.txt>
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mips5sim - five-stage MIPS32 pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: mipssim <program.txt>")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipssim <program.txt>' for the interactive CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: you provided arguments. Use 'go run ./cmd/mipssim' instead.")
	}
}
