// Package shell contains the persistence side of the example application:
// repositories on top of a store engine and database configuration loaded
// from the environment.
package shell
