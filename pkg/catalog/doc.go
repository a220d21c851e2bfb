// Package catalog reads step catalogs from YAML and ships the default
// ad incrementality walkthrough as an embedded document.
package catalog
