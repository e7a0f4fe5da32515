package autodiff_test

import (
	"math"
	"testing"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// TestBackend_Name tests the Name method.
func TestBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	expected := "Autodiff(CPU)"
	if backend.Name() != expected {
		t.Errorf("Name() = %s, want %s", backend.Name(), expected)
	}
}

// TestBackend_Device tests the Device method.
func TestBackend_Device(t *testing.T) {
	backend := autodiff.New(cpu.New())
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want %v", backend.Device(), tensor.CPU)
	}
}

// TestTape_Recording tests tape recording on/off.
func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	if tape.IsRecording() {
		t.Error("Tape should not be recording initially")
	}

	tape.StartRecording()
	if !tape.IsRecording() {
		t.Error("Tape should be recording after StartRecording()")
	}

	tape.StopRecording()
	if tape.IsRecording() {
		t.Error("Tape should not be recording after StopRecording()")
	}
}

// TestTape_Clear tests tape clearing.
func TestTape_Clear(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	tape.StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	backend.Add(a.Raw(), b.Raw())

	if tape.NumOps() == 0 {
		t.Error("Tape should have recorded operations")
	}

	tape.Clear()
	if tape.NumOps() != 0 {
		t.Errorf("Tape should be empty after Clear(), got %d ops", tape.NumOps())
	}
	if !tape.IsRecording() {
		t.Error("Clear() should preserve recording state")
	}
}

// TestTape_NotRecordingByDefault verifies no ops are captured before
// StartRecording.
func TestTape_NotRecordingByDefault(t *testing.T) {
	backend := autodiff.New(cpu.New())

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	backend.Add(a.Raw(), b.Raw())

	if backend.Tape().NumOps() != 0 {
		t.Errorf("expected no recorded ops, got %d", backend.Tape().NumOps())
	}
}

// TestBackward_Add tests d(a+b)/da = 1, d(a+b)/db = 1.
func TestBackward_Add(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{4, 5}, tensor.Shape{2}, backend)
	y := a.Add(b)

	grads := autodiff.Backward(y, backend)

	gradA := grads[a.Raw()]
	gradB := grads[b.Raw()]
	if gradA == nil || gradB == nil {
		t.Fatal("missing gradients for inputs")
	}
	for i, g := range gradA.AsFloat32() {
		if g != 1.0 {
			t.Errorf("gradA[%d] = %v, want 1.0", i, g)
		}
	}
	for i, g := range gradB.AsFloat32() {
		if g != 1.0 {
			t.Errorf("gradB[%d] = %v, want 1.0", i, g)
		}
	}
}

// TestBackward_Mul tests d(a*b)/da = b, d(a*b)/db = a.
func TestBackward_Mul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{4, 5}, tensor.Shape{2}, backend)
	y := a.Mul(b)

	grads := autodiff.Backward(y, backend)

	wantA := []float32{4, 5}
	wantB := []float32{2, 3}
	for i, g := range grads[a.Raw()].AsFloat32() {
		if g != wantA[i] {
			t.Errorf("gradA[%d] = %v, want %v", i, g, wantA[i])
		}
	}
	for i, g := range grads[b.Raw()].AsFloat32() {
		if g != wantB[i] {
			t.Errorf("gradB[%d] = %v, want %v", i, g, wantB[i])
		}
	}
}

// TestBackward_Square tests gradient accumulation: y = x*x, dy/dx = 2x.
func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	y := x.Mul(x)

	grads := autodiff.Backward(y, backend)

	got := grads[x.Raw()].AsFloat32()[0]
	if got != 6.0 {
		t.Errorf("d(x²)/dx at x=3: got %v, want 6.0", got)
	}
}

// TestBackward_MatMul checks matrix multiplication gradients against the
// analytic result gradA = grad @ bᵀ, gradB = aᵀ @ grad.
func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	y := a.MatMul(b)

	grads := autodiff.Backward(y, backend)

	// With outputGrad = ones: gradA = ones @ bᵀ
	wantA := []float32{11, 15, 11, 15}
	// gradB = aᵀ @ ones
	wantB := []float32{4, 4, 6, 6}
	for i, g := range grads[a.Raw()].AsFloat32() {
		if g != wantA[i] {
			t.Errorf("gradA[%d] = %v, want %v", i, g, wantA[i])
		}
	}
	for i, g := range grads[b.Raw()].AsFloat32() {
		if g != wantB[i] {
			t.Errorf("gradB[%d] = %v, want %v", i, g, wantB[i])
		}
	}
}

// TestBackward_BroadcastAdd verifies bias-style broadcasting reduces the
// gradient back to the bias shape.
func TestBackward_BroadcastAdd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, backend)
	bias, _ := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, backend)
	y := x.Add(bias)

	grads := autodiff.Backward(y, backend)

	gradBias := grads[bias.Raw()]
	if !gradBias.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("bias gradient shape = %v, want [2]", gradBias.Shape())
	}
	// Each bias element receives one gradient per row
	for i, g := range gradBias.AsFloat32() {
		if g != 3.0 {
			t.Errorf("gradBias[%d] = %v, want 3.0", i, g)
		}
	}
}

// TestBackward_ReLU tests the ReLU mask gradient.
func TestBackward_ReLU(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{-1, 0, 2, 3}, tensor.Shape{4}, backend)
	raw := backend.ReLU(x.Raw())
	y := tensor.New[float32](raw, backend)

	grads := autodiff.Backward(y, backend)

	want := []float32{0, 0, 1, 1}
	for i, g := range grads[x.Raw()].AsFloat32() {
		if g != want[i] {
			t.Errorf("gradX[%d] = %v, want %v", i, g, want[i])
		}
	}
}

// TestBackward_CrossEntropy checks (softmax - target)/batch for one-hot
// targets.
func TestBackward_CrossEntropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	logits, _ := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{2, 2}, backend)
	targets, _ := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)

	raw := backend.CrossEntropy(logits.Raw(), targets.Raw())
	loss := tensor.New[float32](raw, backend)

	// Uniform logits over 2 classes: loss = ln(2)
	got := float64(loss.Raw().AsFloat32()[0])
	if math.Abs(got-math.Ln2) > 1e-6 {
		t.Errorf("loss = %v, want ln(2) = %v", got, math.Ln2)
	}

	grads := autodiff.Backward(loss, backend)

	// softmax = 0.5 everywhere, batch = 2
	want := []float32{-0.25, 0.25, 0.25, -0.25}
	for i, g := range grads[logits.Raw()].AsFloat32() {
		if math.Abs(float64(g-want[i])) > 1e-6 {
			t.Errorf("gradLogits[%d] = %v, want %v", i, g, want[i])
		}
	}
	if _, ok := grads[targets.Raw()]; ok {
		t.Error("targets should not receive a gradient")
	}
}

// TestBackward_Chain tests a two-layer chain: y = (x @ w) then relu.
func TestBackward_Chain(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, -1}, tensor.Shape{1, 2}, backend)
	w, _ := tensor.FromSlice([]float32{2, -3, 4, 5}, tensor.Shape{2, 2}, backend)

	h := x.MatMul(w)                           // [-2, -8]
	out := tensor.New[float32](backend.ReLU(h.Raw()), backend) // [0, 0]

	grads := autodiff.Backward(out, backend)

	// ReLU kills both activations, so all upstream gradients are zero
	for i, g := range grads[w.Raw()].AsFloat32() {
		if g != 0 {
			t.Errorf("gradW[%d] = %v, want 0", i, g)
		}
	}
}
