package webgpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// getPipeline returns a cached compute pipeline, compiling the shader
// on first use.
func (b *Backend) getPipeline(name string) (*wgpu.ComputePipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pipelines[name]; ok {
		return p, nil
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderSource(name)},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	defer module.Release()

	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name + "_pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}

	b.pipelines[name] = pipeline
	return pipeline, nil
}

// storageBuffer uploads data into a read-only storage buffer.
func (b *Backend) storageBuffer(label string, data []float32) (*wgpu.Buffer, error) {
	return b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(data),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
}

// dispatchElementwise runs a same-shape binary kernel and reads the
// result back into a fresh host tensor.
func (b *Backend) dispatchElementwise(name string, x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	n := x.NumElements()
	sizeBytes := uint64(n * 4)

	pipeline, err := b.getPipeline(name)
	if err != nil {
		return nil, err
	}

	bufA, err := b.storageBuffer(name+"_a", x.AsFloat32())
	if err != nil {
		return nil, err
	}
	defer bufA.Destroy()
	bufB, err := b.storageBuffer(name+"_b", y.AsFloat32())
	if err != nil {
		return nil, err
	}
	defer bufB.Destroy()

	bufOut, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name + "_out",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	defer bufOut.Destroy()

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  name + "_bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: bufA, Size: bufA.GetSize()},
			{Binding: 1, Buffer: bufB, Size: bufB.GetSize()},
			{Binding: 2, Buffer: bufOut, Size: bufOut.GetSize()},
		},
	})
	if err != nil {
		return nil, err
	}

	workgroups := (uint32(n) + 255) / 256
	if err := b.dispatch(pipeline, bindGroup, workgroups, 1); err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	return result, b.readInto(bufOut, result.AsFloat32())
}

// dispatchMatMul runs the matmul kernel for [m,k] x [k,n] float32
// operands.
func (b *Backend) dispatchMatMul(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	m, k := x.Shape()[0], x.Shape()[1]
	n := y.Shape()[1]
	sizeBytes := uint64(m * n * 4)

	pipeline, err := b.getPipeline(shaderMatMul)
	if err != nil {
		return nil, err
	}

	bufA, err := b.storageBuffer("matmul_a", x.AsFloat32())
	if err != nil {
		return nil, err
	}
	defer bufA.Destroy()
	bufB, err := b.storageBuffer("matmul_b", y.AsFloat32())
	if err != nil {
		return nil, err
	}
	defer bufB.Destroy()

	bufOut, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "matmul_out",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	defer bufOut.Destroy()

	dims := []uint32{uint32(m), uint32(k), uint32(n), 0}
	bufDims, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "matmul_dims",
		Contents: wgpu.ToBytes(dims),
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		return nil, err
	}
	defer bufDims.Destroy()

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "matmul_bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: bufA, Size: bufA.GetSize()},
			{Binding: 1, Buffer: bufB, Size: bufB.GetSize()},
			{Binding: 2, Buffer: bufOut, Size: bufOut.GetSize()},
			{Binding: 3, Buffer: bufDims, Size: bufDims.GetSize()},
		},
	})
	if err != nil {
		return nil, err
	}

	wx := (uint32(n) + 15) / 16
	wy := (uint32(m) + 15) / 16
	if err := b.dispatch(pipeline, bindGroup, wx, wy); err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	return result, b.readInto(bufOut, result.AsFloat32())
}

// dispatch encodes one compute pass and submits it. The staging copy
// happens later in readInto.
func (b *Backend) dispatch(
	pipeline *wgpu.ComputePipeline,
	bindGroup *wgpu.BindGroup,
	workgroupsX, workgroupsY uint32,
) error {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workgroupsX, workgroupsY, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(cmd)
	return nil
}

// readInto copies a GPU buffer into dst through a mapped staging
// buffer, blocking until the copy completes.
func (b *Backend) readInto(src *wgpu.Buffer, dst []float32) error {
	sizeBytes := uint64(len(dst) * 4)

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	defer staging.Destroy()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(cmd)

	done := make(chan wgpu.BufferMapAsyncStatus, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		done <- status
	})
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	b.device.Poll(true, nil)
	if status := <-done; status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("map failed: %v", status)
	}

	mapped := staging.GetMappedRange(0, uint(sizeBytes))
	if mapped == nil {
		return fmt.Errorf("failed to get mapped range")
	}
	copy(dst, wgpu.FromBytes[float32](mapped))
	staging.Unmap()
	return nil
}
