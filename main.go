package main

import "github.com/saadjs/fittrack-cli/cmd/fittrack"

func main() {
	fittrack.Execute()
}
