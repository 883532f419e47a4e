/*
Package gateway defines the SessionGateway collaborator contract named
in spec §1 item C: the transport that frames raw input into Commands and
owns real connections. mudforge's core depends only on the
SessionGateway and Sink interfaces; InProcess is a minimal reference
implementation for embedding the engine without a network layer.

# See Also

  - pkg/router, which delivers committed messages through Sink
  - pkg/scheduler, whose Submit a transport calls for each framed command
*/
package gateway
