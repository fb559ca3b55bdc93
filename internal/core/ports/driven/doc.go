// Package driven defines the outbound ports consumed by the core services:
// the remote document source, the deployment sink, the resumption
// checkpoint and the local artifact writers. Adapters implement these
// interfaces; services depend only on them.
package driven
