// Package mock provides test doubles for the ai interfaces. The defaults are
// deterministic so tests can run without any external model service; function
// fields allow per-test behavior injection.
package mock
