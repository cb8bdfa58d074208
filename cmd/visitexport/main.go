package main

import "github.com/dbsmedya/visitexport/cmd/visitexport/cmd"

func main() {
	cmd.Execute()
}
