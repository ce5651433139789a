// Package pipeline runs the full card recognition: load, grayscale, number
// scan, face detection and the optional face save.
//
// Stages run strictly in that order. Run reports progress 20 after the
// grayscale conversion, 50 after the number scan and 100 after face
// detection. Worker runs a Pipeline in the background and turns those
// callbacks into events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/face"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
)

// Progress checkpoints reported by Run.
const (
	ProgressGrayscale = 20
	ProgressScanned   = 50
	ProgressFaces     = 100
)

var (
	// ErrNotRecognized is returned by SaveFace when no ID number is available
	// to name the file.
	ErrNotRecognized = errors.New("ID number not recognized")

	// ErrNoFace is returned by SaveFace when there is no face image.
	ErrNoFace = errors.New("no face detected")
)

// Status summarizes which halves of the recognition succeeded.
type Status string

const (
	StatusComplete            Status = "complete"
	StatusNoFace              Status = "no_face"
	StatusNotRecognized       Status = "not_recognized"
	StatusNoFaceNotRecognized Status = "no_face_not_recognized"
)

// StatusOf derives the status from the two outcomes.
func StatusOf(recognized, faceFound bool) Status {
	switch {
	case recognized && faceFound:
		return StatusComplete
	case recognized:
		return StatusNoFace
	case faceFound:
		return StatusNotRecognized
	default:
		return StatusNoFaceNotRecognized
	}
}

// Pipeline holds the collaborators of one recognition run. It is safe for
// concurrent use when its Scanner and Faces are.
type Pipeline struct {
	Cache   *imaging.ImageCache
	Scanner *nid.Scanner
	Faces   face.Detector

	// SaveDir enables saving the face as <SaveDir>/<id>.jpg. Empty disables it.
	SaveDir string

	// JPEGQuality for saved faces. Zero means imaging.DefaultJPEGQuality.
	JPEGQuality int

	// Debug enables per-stage log lines.
	Debug bool
}

// Result is the outcome of one run.
type Result struct {
	Path string `json:"path"`

	// ID is the recognized number or nid.NotRecognized.
	ID         string `json:"id"`
	Recognized bool   `json:"recognized"`

	// Region is the text block the number was read from.
	Region          *detection.Bounds `json:"region,omitempty"`
	RegionsExamined int               `json:"regions_examined"`
	RegionsFound    int               `json:"regions_found"`

	FaceFound  bool              `json:"face_found"`
	FaceBounds *detection.Bounds `json:"face_bounds,omitempty"`
	FacesFound int               `json:"faces_found"`

	// Face is the cropped colour face. FaceBase64 is only filled by EncodeFace.
	Face       *image.NRGBA `json:"-"`
	FaceBase64 string       `json:"face_base64,omitempty"`
	FaceMIME   string       `json:"face_mime,omitempty"`

	// Annotated is the colour image with every examined block outlined.
	Annotated *image.NRGBA `json:"-"`

	SavedPath string `json:"saved_path,omitempty"`
	SaveError string `json:"save_error,omitempty"`

	Status Status `json:"status"`
}

// EncodeFace fills FaceBase64 with the face in the given format ("png" or
// "jpeg"). It is a no-op when no face was found.
func (r *Result) EncodeFace(format string) error {
	if r.Face == nil {
		return nil
	}
	payload, mime, err := imaging.EncodeBase64(r.Face, format)
	if err != nil {
		return err
	}
	r.FaceBase64, r.FaceMIME = payload, mime
	return nil
}

// Run recognizes the card at path.
//
// progress may be nil. A decode failure returns an error wrapping
// imaging.ErrDecode; scanner and detector failures are returned wrapped and
// abort the run. A failed save does not fail the run and is reported in
// Result.SaveError.
func (p *Pipeline) Run(ctx context.Context, path string, progress func(int)) (*Result, error) {
	report := func(v int) {
		if progress != nil {
			progress(v)
		}
	}

	img, err := p.Cache.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(img)
	col := imaging.Clone(img)
	p.debugf("%s: %dx%d grayscale ready", path, gray.Bounds().Dx(), gray.Bounds().Dy())
	report(ProgressGrayscale)

	scan, err := p.Scanner.Scan(ctx, gray, col)
	if err != nil {
		return nil, fmt.Errorf("number scan failed: %w", err)
	}
	p.debugf("%s: %d regions, %d examined, id %q", path, len(scan.Regions), scan.Examined, scan.ID)
	report(ProgressScanned)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dets, err := p.Faces.Detect(gray)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result := &Result{
		Path:            path,
		ID:              scan.ID,
		Recognized:      scan.Recognized,
		Region:          scan.Region,
		RegionsExamined: scan.Examined,
		RegionsFound:    len(scan.Regions),
		FacesFound:      len(dets),
		Annotated:       scan.Annotated,
	}

	if r, ok := face.First(dets); ok {
		crop, err := face.Crop(col, r)
		if err != nil {
			p.debugf("%s: first face %v unusable: %v", path, r, err)
		} else {
			b := detection.FromRect(r.Intersect(col.Bounds()))
			result.FaceFound = true
			result.FaceBounds = &b
			result.Face = crop
		}
	}
	p.debugf("%s: %d faces, first used: %v", path, len(dets), result.FaceFound)
	report(ProgressFaces)

	result.Status = StatusOf(result.Recognized, result.FaceFound)

	if p.SaveDir != "" && result.Recognized && result.FaceFound {
		saved, err := SaveFace(p.SaveDir, result.ID, result.Face, p.JPEGQuality)
		if err != nil {
			log.Printf("Failed to save face for %s: %v", path, err)
			result.SaveError = err.Error()
		} else {
			result.SavedPath = saved
		}
	}

	return result, nil
}

// SavePath returns where the face for id is stored under dir.
func SavePath(dir, id string) string {
	return filepath.Join(dir, id+".jpg")
}

// SaveFace writes the face as a JPEG named after id and returns the path.
// An existing file is overwritten.
func SaveFace(dir, id string, faceImg image.Image, quality int) (string, error) {
	if id == "" || id == nid.NotRecognized {
		return "", ErrNotRecognized
	}
	if faceImg == nil {
		return "", ErrNoFace
	}
	if quality == 0 {
		quality = imaging.DefaultJPEGQuality
	}

	path := SavePath(dir, id)
	if err := imaging.SaveJPEG(faceImg, path, quality); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.Debug {
		log.Printf("[debug] "+format, args...)
	}
}
