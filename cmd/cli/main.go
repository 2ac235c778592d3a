package main

import (
	"github.com/mchmarny/recognizer/pkg/cli"
)

func main() {
	cli.Execute()
}
