package tensor

// Device represents the compute device holding a tensor's device-side copy.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// DeviceAddress is a borrowed reference to device-resident tensor memory.
//
// A Tensor never allocates, frees or resizes the memory behind a DeviceAddress;
// it only asks for a copy of it. SyncDeviceToHost blocks until dst holds the
// host-visible bytes for shape and dtype, len(dst) being the byte count.
type DeviceAddress interface {
	Device() Device
	SyncDeviceToHost(shape Shape, dtype DataType, dst []byte) error
}
