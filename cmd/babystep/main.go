// Baby-step command line tool
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// babystep adjusts the Z offset of a running printer in small steps and
// mirrors the change into the stored nozzle offset.
//
// Usage:
//
//	babystep run   [-c babystep.cfg] [--yes]
//	babystep show  [-c babystep.cfg] [--json]
//	babystep reset [-c babystep.cfg] [--save]
//
// Configuration is an INI file with [babystep], [serial], [param_store],
// [status_server] and [encoder] sections. Any option can be overridden from the
// environment or a .env file as BABYSTEP__<SECTION>__<OPTION>=value.
package main

import "github.com/tebeka/atexit"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
