// Package jobmanager provides functionality for running simulation
// subprocesses as Jobs.
//
// A Job is one independent simulation run identified by an integer. It moves
// through Pending -> Running -> {Succeeded, Failed}; terminal states are
// final and Jobs are never retried. Each Job stages a private copy of the
// shared initial condition before executing, so no two Jobs ever write the
// same file.
//
// A Runner holds the run-wide configuration and creates Jobs.
package jobmanager
