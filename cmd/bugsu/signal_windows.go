//go:build windows

package main

import "os"

// shutdownSignals are the signals that stop a long-running command.
// Windows only delivers os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}
