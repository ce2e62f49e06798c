//go:build !linux

/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/allbin/serialmon"
)

func newTermiosDriver(zerolog.Logger) (serialmon.Driver, error) {
	return nil, errors.New("the termios driver is only available on Linux")
}
