// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Backend is the interface all compute backends implement.
type Backend = tensor.Backend

// BroadcastShapes computes the result shape of broadcasting a with b
// under NumPy rules. The boolean reports whether any broadcasting is
// actually required.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
