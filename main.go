package main

import "github.com/ValentinKolb/dODBC/cmd"

func main() {
	cmd.Execute()
}
