// Package solar supplies the ambient light collaborator for device
// behaviour models: a brightness level in [0,1] for a timestamp and a
// geographic coordinate, derived from an approximate solar elevation.
package solar
