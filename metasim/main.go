// Package main is the entry point of the metasim command line tool.
package main

import "github.com/sarchlab/metasim/metasim/cmd"

func main() {
	cmd.Execute()
}
