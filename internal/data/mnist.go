package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MNIST IDX file names as distributed at yann.lecun.com.
const (
	mnistTrainImages = "train-images-idx3-ubyte"
	mnistTrainLabels = "train-labels-idx1-ubyte"
	mnistTestImages  = "t10k-images-idx3-ubyte"
	mnistTestLabels  = "t10k-labels-idx1-ubyte"

	mnistClasses = 10
)

// LoadMNIST loads the four MNIST IDX files from dir.
//
// Pixels are scaled to [0, 1] and labels are one-hot encoded over the
// ten digit classes.
func LoadMNIST(dir string) (train, test *Dataset, err error) {
	train, err = loadIDXPair(filepath.Join(dir, mnistTrainImages), filepath.Join(dir, mnistTrainLabels))
	if err != nil {
		return nil, nil, fmt.Errorf("mnist train: %w", err)
	}
	test, err = loadIDXPair(filepath.Join(dir, mnistTestImages), filepath.Join(dir, mnistTestLabels))
	if err != nil {
		return nil, nil, fmt.Errorf("mnist test: %w", err)
	}
	return train, test, nil
}

func loadIDXPair(imagesPath, labelsPath string) (*Dataset, error) {
	images, rows, cols, err := readIDXImages(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := readIDXLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%d images but %d labels", len(images), len(labels))
	}

	numSamples := len(images)
	numFeatures := rows * cols

	inputs := make([]float32, numSamples*numFeatures)
	oneHot := make([]float32, numSamples*mnistClasses)
	for i, img := range images {
		for j, pixel := range img {
			inputs[i*numFeatures+j] = float32(pixel) / 255.0
		}
		label := labels[i]
		if label >= mnistClasses {
			return nil, fmt.Errorf("sample %d: label %d out of range", i, label)
		}
		oneHot[i*mnistClasses+int(label)] = 1
	}

	return NewDataset(inputs, oneHot, numSamples, numFeatures, mnistClasses)
}

// readIDXImages reads an MNIST image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
func readIDXImages(filename string) (images [][]byte, rows, cols int, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != 2051 {
		return nil, 0, 0, fmt.Errorf("invalid magic number: got %d, want 2051", magic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(file, binary.BigEndian, &numImages); err != nil {
		return nil, 0, 0, err
	}
	if err := binary.Read(file, binary.BigEndian, &numRows); err != nil {
		return nil, 0, 0, err
	}
	if err := binary.Read(file, binary.BigEndian, &numCols); err != nil {
		return nil, 0, 0, err
	}

	imageSize := int(numRows * numCols)
	images = make([][]byte, numImages)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(file, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
	}

	return images, int(numRows), int(numCols), nil
}

// readIDXLabels reads an MNIST label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != 2049 {
		return nil, fmt.Errorf("invalid magic number: got %d, want 2049", magic)
	}

	var numLabels uint32
	if err := binary.Read(file, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	labels := make([]byte, numLabels)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	return labels, nil
}
