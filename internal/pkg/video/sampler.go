package video

// DefaultFrameBudget is the number of frames analysed per video when not configured.
const DefaultFrameBudget = 10

// Stride returns the sampling interval for a video of total frames.
func Stride(total, budget int) int {
	if budget <= 0 {
		budget = DefaultFrameBudget
	}
	stride := total / budget
	if stride < 1 {
		stride = 1
	}
	return stride
}

// SampleIndices returns 0, stride, 2*stride, ... below total.
// The result can hold more than budget entries when total is not a multiple of budget.
func SampleIndices(total, budget int) []int {
	if total <= 0 {
		return nil
	}
	stride := Stride(total, budget)
	indices := make([]int, 0, total/stride+1)
	for i := 0; i < total; i += stride {
		indices = append(indices, i)
	}
	return indices
}
