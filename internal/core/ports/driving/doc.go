// Package driving defines the inbound ports: the operations the CLI (or
// any other host) invokes on the core services.
package driving
