/*
Package ports defines the driven ports (interfaces) of the scene synchronization core.

These interfaces decouple the view connector from the transport and the task runtime,
allowing the same scene code to push commands over WebSockets, in-memory recorders
in tests, or any other message-oriented connection.

# Key Interfaces

  - Socket: one live client connection able to receive a wire command.
  - ConnectionRegistry: resolves the live sockets of a page. Read-only for the core.
  - Scheduler: runs delivery work independently of the mutation that produced it.
  - DistributedLocker: serializes scene construction for a page across replicas.
  - PresenceTracker: counts connected clients of a page across replicas.
*/
package ports
