package main

import (
	"fmt"

	"github.com/born-ml/tensordata/internal/device"
	"github.com/born-ml/tensordata/internal/tensor"
)

// deviceBuffer is a device copy of a tensor that the CLI owns.
type deviceBuffer interface {
	tensor.DeviceAddress
	Release()
}

// uploader copies host bytes into a new device buffer.
type uploader func(data []byte) deviceBuffer

// openDevice returns the uploader for name and a func releasing the device.
// An empty name selects no device.
func openDevice(name string) (uploader, func(), error) {
	switch name {
	case "":
		return nil, func() {}, nil
	case "host":
		return func(data []byte) deviceBuffer {
			return device.NewHostBuffer(tensor.CPU, data)
		}, func() {}, nil
	case "webgpu":
		gpu, err := device.NewGPU()
		if err != nil {
			return nil, nil, err
		}
		return func(data []byte) deviceBuffer {
			return gpu.Upload(data)
		}, gpu.Release, nil
	}
	return nil, nil, fmt.Errorf("unknown device %q (want host or webgpu)", name)
}

// throughDevice uploads t and returns an empty tensor of the same type backed
// by the device copy. Its host buffer is filled on the next DataSync.
func throughDevice(t *tensor.Tensor, upload uploader) (*tensor.Tensor, deviceBuffer, error) {
	buf := upload(t.Bytes())
	mirror, err := tensor.New(t.DType(), t.Shape())
	if err != nil {
		buf.Release()
		return nil, nil, err
	}
	mirror.SetDeviceAddress(buf)
	return mirror, buf, nil
}
