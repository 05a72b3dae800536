package main

import "time"

// wallClockNow is a var, not a direct time.Now() call, so tests in this
// package can pin the clock without touching the core packages' pure
// functions.
var wallClockNow = time.Now
