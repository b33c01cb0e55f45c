/*
Package domain contains the core models of the scene synchronization protocol.

It defines the vocabulary shared by the encoder, the scene graph and the transport
adapters. This package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - ObjectType / Shape: the closed (but extensible) set of node kinds and their declared
    construction parameters.
  - ObjectSnapshot: a value copy of one scene node (identity, args, material, position, parent).
  - Command: a serialized instruction (create, material, move) sent to renderers.
  - Event: an inbound client event (connect or click).
  - Hooks: observability callbacks fired by the view connector.
*/
package domain
