// Package config provides database configurations for tests that run against
// a local PostgreSQL instance.
package config
