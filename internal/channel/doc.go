// Package channel implements the command channel to the drone: one UDP
// socket, one outstanding command at a time, one datagram reply or a
// bounded timeout per command.
package channel
