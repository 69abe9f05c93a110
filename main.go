package main

import (
	"github.com/IHGGM-Aachen/primertool/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
