// Command taskly is a personal task tracker.
package main

import "github.com/mesh-intelligence/taskly/internal/cli"

func main() {
	cli.Execute()
}
