package main

import "github.com/WangWilly/xCrawl/pkgs/clipkg/commands"

////////////////////////////////////////////////////////////////////////////////
// Main Application Entry Point
////////////////////////////////////////////////////////////////////////////////

func main() {
	commands.Execute()
}
