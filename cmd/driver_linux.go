//go:build linux

/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/rs/zerolog"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/driver/termios"
)

func newTermiosDriver(log zerolog.Logger) (serialmon.Driver, error) {
	return termios.New(termios.WithLogger(log)), nil
}
