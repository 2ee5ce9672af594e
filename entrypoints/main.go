package main

import (
	"github.com/Laisky/laisky-blog-rest/cmd"
)

func main() {
	cmd.Execute()
}
