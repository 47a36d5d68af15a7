// The main package for the hn-crawler executable.
package main

import (
	"github.com/JakeFAU/hn-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
