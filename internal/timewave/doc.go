// Package timewave provides time-indexed probability curves and weekly
// usage schedules for device behaviour models.
//
// Curves describe how a value (typically communication reliability)
// varies over the lifetime of a simulation, as an ordered list of
// (relative time, probability) samples interpolated linearly. Schedules
// describe when simulated humans interact with a device: a set of
// weekdays plus a time-of-day window such as 06:00-09:00.
package timewave
