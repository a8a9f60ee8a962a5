/*
Python Obfuscator Tool (Entry Point)

This tool rewrites Python source code to make it harder to read and
reverse-engineer while keeping its behavior intact. Techniques range from
identifier scrambling and string encoding to control flow tricks and
runtime code generation.
*/
package main

import (
	"github.com/whit3rabbit/pymixer/cmd/go-py-obfuscator/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
