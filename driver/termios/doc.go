// Package termios implements serialmon.Driver with raw termios ioctls from
// golang.org/x/sys/unix. It is only built on Linux.
//
// Ports are opened raw 8N1. Standard rates use the Bnnn constants; other
// rates, such as 74880 and 250000, are set with BOTHER through TCSETS2.
// Devices are found by scanning /dev, and USB vendor and product ids are
// read from sysfs.
package termios
