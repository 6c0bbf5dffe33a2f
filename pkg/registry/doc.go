// Package registry lists the versions already published for a package.
//
// Port is the only contract the resolver depends on. NPM, CratesIO and GoProxy implement it
// over HTTP with retries; Static serves a fixed list for offline use.
package registry
