// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the feed-forward network and parameter tree used
// by the training engine.
//
// # Overview
//
// This package contains:
//   - MLP: a fully connected classifier with ReLU hidden layers
//   - ParamTree, Layer: the immutable parameter container
//   - Initialization: Xavier, Zeros, Ones
//
// # Basic Usage
//
//	import (
//	    "github.com/sngrad-ml/sngrad/nn"
//	    "github.com/sngrad-ml/sngrad/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    model, err := nn.NewMLP([]int{784, 128, 10}, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    params := model.Init(42)
//	    logits := model.Forward(params, inputs)
//	}
//
// Parameter trees are plain values: optimizers read one tree and return
// a fresh tree, so a caller can keep any number of versions alive at
// once (for learning-rate trials, checkpoint comparison, and so on).
package nn
