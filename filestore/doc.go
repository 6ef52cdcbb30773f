// Package filestore reads and atomically writes configuration files.
//
// Disk is the storage used by default; Memory keeps files in a map and is
// meant for tests and hosts that embed configuration.
//
// Example:
//
//	store := filestore.NewDisk(filestore.Options{Perm: 0600})
//	h, err := mooring.NewLoader[Config]().WithStorage(store).Open("config.yaml")
package filestore
