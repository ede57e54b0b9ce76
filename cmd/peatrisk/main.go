package main

import "github.com/MeKo-Tech/peatrisk/internal/cmd"

func main() {
	cmd.Execute()
}
