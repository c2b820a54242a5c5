/*
Package main is the findy-didcomm agent. It speaks DIDComm v1 with Aries
agents and runs four protocols over it: RFC 0160 connection, RFC 0023 did
exchange, RFC 0036 issue credential and RFC 0037 present proof.

The agent is built from small packages which can be used as a library as well:

	agent/envelope  the DIDComm v1 envelope, authcrypt and anoncrypt
	agent/psm       the protocol state machine engine and the run stores
	protocol/...    the protocol state machines, pure state transitions
	agent/prot      the processor which binds the protocols to the
	                wallet, the transport and the store
	agent/endp      the inbound HTTP handler

# About the build-in CLI

	findy-didcomm serve --seed 000000000000000000000000Steward1 --invitation

starts the agent with a public DID and prints a connection invitation to it.
The agent answers both connection and did exchange requests to the public DID.
The key and invitation commands work offline.

Logging is glog, and its flags are given with the --logging flag, e.g.
--logging "-logtostderr=true -v=3". Every flag can be set with an environment
variable, which names are printed in the help of the command.
*/
package main
