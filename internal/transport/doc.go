// Package transport owns the duplex connection to a USB grid
// controller. It frames and unframes USB-MIDI packets, runs a reader
// goroutine feeding decoded events to a sink, and coordinates bulk
// output with the reader through a pause/resume rendezvous so repaints
// never interleave with inbound transfers.
package transport
