// Package cost estimates what running containers cost and finds the ones
// that are wasting money.
//
// Costs are derived from point-in-time usage samples:
//
//	CPU Cost/h    = (CPU% / 100) × CPURate
//	Memory Cost/h = (Memory bytes / 2^30) × MemoryRate
//	Hourly        = CPU Cost/h + Memory Cost/h
//	Daily         = Hourly × 24
//	Monthly       = Daily × 30
//
// All arithmetic is done at full precision. Rounding (hourly to 4 decimal
// places, daily and monthly to 2) happens once, when an estimate is presented.
package cost
