// Package patch defines the schedulable patch unit and its severity tier.
package patch
