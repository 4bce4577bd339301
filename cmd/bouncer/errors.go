package main

import "errors"

var errPaused = errors.New("bouncer: not accepting new command requests (paused)")
