package orchestrator

import "math"

// PerWorkerTargetRPS is the per-process ceiling the auto sizer assumes a
// single worker can sustain comfortably.
const PerWorkerTargetRPS = 2500

// ChooseWorkers resolves the worker-process count. A manual request always
// wins. With auto sizing the count scales with the target rate but is capped
// at twice the CPU count. The returned reason names which rule fired.
func ChooseWorkers(autoEnabled bool, requested int, targetRPS int, perWorkerTarget int, cpuCount int) (int, string) {
	if requested > 0 {
		return requested, "manual"
	}
	if autoEnabled && targetRPS > 0 && perWorkerTarget > 0 {
		byRate := int(math.Ceil(float64(targetRPS) / float64(perWorkerTarget)))
		byCPU := cpuCount * 2
		if byCPU < 1 {
			byCPU = 1
		}
		n := byRate
		if byCPU < n {
			n = byCPU
		}
		if n < 1 {
			n = 1
		}
		return n, "auto"
	}
	n := cpuCount
	if n < 1 {
		n = 1
	}
	return n, "fallback"
}
