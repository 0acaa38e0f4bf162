// Command loat is the executable entry point for the integer-transition-
// system complexity analyzer.
package main

import "github.com/mmjb/LoAT/pkg/cmd"

func main() {
	cmd.Execute()
}
