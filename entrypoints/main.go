package main

import (
	"github.com/Laisky/laisky-blog-search/cmd"
)

func main() {
	cmd.Execute()
}
