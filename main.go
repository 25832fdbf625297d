// Package main is the entry point for pagestatic, a static analyzer that
// reports the exports and directives of JavaScript and TypeScript page modules.
package main

import "pagestatic/cmd"

func main() {
	cmd.Execute()
}
