// Command pointa is the batch CLI around the pointer-analysis core:
// extract constraints from a tree of C/C++ sources into the store, then
// slice and solve from a seed.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
