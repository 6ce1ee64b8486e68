// Package command defines the text commands understood by the drone, the
// parameter-range rules that gate movement commands, and the failover
// policies the chain engine applies when a command is rejected.
//
// Commands are always transmitted as plain text. The structured parameters
// carried next to the text exist only so the client can refuse values the
// device would reject before anything is put on the wire.
package command
