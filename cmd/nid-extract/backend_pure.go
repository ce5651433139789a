//go:build !gocv

package main

import (
	"github.com/ironsheep/nid-extract/internal/config"
	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
)

const (
	backendName = "pure-go"

	// defaultCascade is the pigo face model file name.
	defaultCascade = "facefinder"
)

func newRegionFinder(cfg *config.Config) detection.RegionFinder {
	return &detection.ContourFinder{KernelWidth: cfg.KernelSize, KernelHeight: cfg.KernelSize}
}

func newFaceDetector(cfg *config.Config) (face.Detector, func(), error) {
	path := cfg.FaceCascade
	if path == "" {
		path = defaultCascade
	}
	d, err := face.LoadPigoDetector(path, cfg.FaceParams())
	if err != nil {
		return nil, nil, err
	}
	return d, func() {}, nil
}
