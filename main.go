package main

import (
	"github.com/tminor/tycheck/command"
)

func main() {
	command.Execute()
}
