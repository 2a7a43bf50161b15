package main

import "github.com/gfmoura/book-management/cmd"

func main() {
	cmd.Execute()
}
