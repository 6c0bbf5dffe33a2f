package main

// Version is the oneup release, patched by oneup itself at release time.
var (
	Version = "dev"
)
