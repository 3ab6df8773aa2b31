package main

import (
	_ "embed"

	"github.com/milk9111/gamearch/script"
)

//go:embed defaults/spark.tengo
var sparkScript []byte

// loadSparkProgram compiles the script at path, or the embedded one when
// path is empty.
func loadSparkProgram(path string) (*script.Program, error) {
	if path != "" {
		return script.Load(path)
	}
	return script.Compile("spark.tengo", sparkScript)
}
