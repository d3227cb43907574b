// Package timeslot holds the pure time and business-rule helpers of the
// booking calendar: wall-clock time parsing, business-window containment,
// half-open interval overlap, and the single authoritative conversion from a
// wall-clock date+time in a client timezone to a UTC instant.
//
// Every function is stateless and takes "now" and the business window as
// arguments; configuration lives in the config package.
package timeslot
