//go:build gocv

package main

import (
	"log"
	"sync"

	"github.com/ironsheep/nid-extract/internal/config"
	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
)

const (
	backendName    = "opencv"
	defaultCascade = face.DefaultHaarCascade
)

func newRegionFinder(cfg *config.Config) detection.RegionFinder {
	return &detection.OpenCVFinder{KernelWidth: cfg.KernelSize, KernelHeight: cfg.KernelSize}
}

func newFaceDetector(cfg *config.Config) (face.Detector, func(), error) {
	path := cfg.FaceCascade
	if path == "" {
		path = defaultCascade
	}
	d, err := face.NewCascadeDetector(path, cfg.FaceParams())
	if err != nil {
		return nil, nil, err
	}
	var once sync.Once
	return d, func() {
		once.Do(func() {
			if err := d.Close(); err != nil {
				log.Printf("Failed to release face cascade: %v", err)
			}
		})
	}, nil
}
