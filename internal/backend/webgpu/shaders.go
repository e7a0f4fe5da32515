package webgpu

// Shader names double as pipeline cache keys.
const (
	shaderAdd    = "add"
	shaderSub    = "sub"
	shaderMul    = "mul"
	shaderDiv    = "div"
	shaderMatMul = "matmul"
)

// elementwiseWGSL builds a same-shape binary kernel. One thread per
// element; extra threads past the array end return early.
func elementwiseWGSL(operator string) string {
	return `
@group(0) @binding(0) var<storage, read> a : array<f32>;
@group(0) @binding(1) var<storage, read> b : array<f32>;
@group(0) @binding(2) var<storage, read_write> out : array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid : vec3<u32>) {
	let i = gid.x;
	if (i >= arrayLength(&out)) {
		return;
	}
	out[i] = a[i] ` + operator + ` b[i];
}
`
}

// matmulWGSL is a naive [m,k] x [k,n] kernel, one thread per output
// element. Dimensions arrive in a uniform buffer padded to 16 bytes.
const matmulWGSL = `
struct Dims {
	m : u32,
	k : u32,
	n : u32,
	pad : u32,
}

@group(0) @binding(0) var<storage, read> a : array<f32>;
@group(0) @binding(1) var<storage, read> b : array<f32>;
@group(0) @binding(2) var<storage, read_write> out : array<f32>;
@group(0) @binding(3) var<uniform> dims : Dims;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid : vec3<u32>) {
	let col = gid.x;
	let row = gid.y;
	if (row >= dims.m || col >= dims.n) {
		return;
	}
	var sum = 0.0;
	for (var i = 0u; i < dims.k; i = i + 1u) {
		sum = sum + a[row * dims.k + i] * b[i * dims.n + col];
	}
	out[row * dims.n + col] = sum;
}
`

// shaderSource maps a name to its WGSL code.
func shaderSource(name string) string {
	switch name {
	case shaderAdd:
		return elementwiseWGSL("+")
	case shaderSub:
		return elementwiseWGSL("-")
	case shaderMul:
		return elementwiseWGSL("*")
	case shaderDiv:
		return elementwiseWGSL("/")
	case shaderMatMul:
		return matmulWGSL
	}
	panic("webgpu: unknown shader " + name)
}
